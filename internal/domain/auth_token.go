package domain

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = categorized(ErrUnauthenticated, "no auth token")
	// ErrInvalidAuthToken is returned when a token is malformed, its signature is invalid or it has expired.
	ErrInvalidAuthToken = categorized(ErrUnauthenticated, "invalid auth token")
)

// TokenTypeBearer is the token_type reported by the login endpoint.
const TokenTypeBearer = "bearer"

// AuthClaims is the payload of a signed token.
type AuthClaims struct {
	Subject   int64  `json:"sub"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthTokenResponse is returned by a successful login.
type AuthTokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        PublicUser `json:"user"`
}
