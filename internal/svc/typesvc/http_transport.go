package typesvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
)

// HTTPTransport exposes the type endpoints.
type HTTPTransport struct {
	typeSvc *TypeService
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport on typeSvc.
func NewHTTPTransport(typeSvc *TypeService) *HTTPTransport {
	return &HTTPTransport{
		typeSvc: typeSvc,
		log:     logging.GetLogger("svc.typesvc.http_transport"),
	}
}

// Routes sets up:
// - GET /types: list types
// - POST /types: create a type
// - GET /types/{id}: one type
// - GET /types/{id}/creatures: a type with its creatures.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Get("/types", http_.Handle(ht.log, "type list", ht.handleList))
	r.Post("/types", http_.Handle(ht.log, "type create", ht.handleCreate))
	r.Get("/types/{id}", http_.Handle(ht.log, "type show", ht.handleShow))
	r.Get("/types/{id}/creatures", http_.Handle(ht.log, "type creatures", ht.handleCreatures))
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) error {
	types, err := ht.typeSvc.ListTypes(r.Context())
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, domain.ListResponse[domain.CreatureType]{Items: types})

	return nil
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req domain.CreateTypeRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.typeSvc.CreateType(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusCreated, created)

	return nil
}

func (ht *HTTPTransport) handleShow(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	t, err := ht.typeSvc.GetType(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, t)

	return nil
}

func (ht *HTTPTransport) handleCreatures(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	resp, err := ht.typeSvc.TypeCreatures(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, resp)

	return nil
}
