package hybridsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
)

// HTTPTransport exposes the hybrid endpoints.
type HTTPTransport struct {
	hybridSvc *HybridService
	log       logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport on hybridSvc.
func NewHTTPTransport(hybridSvc *HybridService) *HTTPTransport {
	return &HTTPTransport{
		hybridSvc: hybridSvc,
		log:       logging.GetLogger("svc.hybridsvc.http_transport"),
	}
}

// Routes sets up:
// - POST /hybrids: fuse two creatures
// - GET /hybrids: list hybrids
// - GET /hybrids/{id}: one hybrid by creature id.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Post("/hybrids", http_.Handle(ht.log, "hybrid create", ht.handleCreate))
	r.Get("/hybrids", http_.Handle(ht.log, "hybrid list", ht.handleList))
	r.Get("/hybrids/{id}", http_.Handle(ht.log, "hybrid show", ht.handleShow))
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req domain.FusionRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.hybridSvc.Fuse(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusCreated, created)

	return nil
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) error {
	hybrids, err := ht.hybridSvc.ListHybrids(r.Context())
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, domain.ListResponse[domain.Hybrid]{Items: hybrids})

	return nil
}

func (ht *HTTPTransport) handleShow(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	h, err := ht.hybridSvc.GetHybrid(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, h)

	return nil
}
