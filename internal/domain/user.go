package domain

var (
	// ErrUserAlreadyExists is returned when the username or email is already registered.
	ErrUserAlreadyExists = categorized(ErrConflict, "user already exists")
	// ErrInvalidCredentials is returned when the identifier/password combination is incorrect.
	// It never reveals which of the two was wrong.
	ErrInvalidCredentials = categorized(ErrUnauthenticated, "invalid credentials")
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    string
}

// PublicUser is the part of a User that may leave the service.
type PublicUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Public strips the credential from u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login. Either Email or Username identifies the account.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse wraps a PublicUser.
type UserResponse struct {
	User PublicUser `json:"user"`
}
