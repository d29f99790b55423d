package authsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
)

// HTTPTransport handles HTTP requests for the authentication service.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport on authSvc.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// Routes sets up the auth endpoints:
// - POST /auth/register: register a new user
// - POST /auth/login: log in and get a bearer token
// - GET /auth/me: the authenticated user
// - POST /auth/validate: the claims of the bearer token.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Post("/auth/register", http_.Handle(ht.log, "user register", ht.handleRegister))
	r.Post("/auth/login", http_.Handle(ht.log, "user login", ht.handleLogin))
	r.Get("/auth/me", http_.Handle(ht.log, "current user", ht.handleMe))
	r.Post("/auth/validate", http_.Handle(ht.log, "token validation", ht.handleValidate))
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req domain.RegisterRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.authSvc.RegisterUser(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusCreated, domain.UserResponse{User: created.Public()})

	return nil
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req domain.LoginRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := ht.authSvc.Login(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, resp)

	return nil
}

func (ht *HTTPTransport) handleMe(w http.ResponseWriter, r *http.Request) error {
	current, err := ht.authSvc.CurrentUser(r.Context())
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, domain.UserResponse{User: current.Public()})

	return nil
}

func (ht *HTTPTransport) handleValidate(w http.ResponseWriter, r *http.Request) error {
	tokenString, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return domain.ErrNoAuthToken
	}

	claims, err := ht.authSvc.ValidateToken(r.Context(), tokenString)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, claims)

	return nil
}
