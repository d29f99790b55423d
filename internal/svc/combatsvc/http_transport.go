package combatsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
)

// HTTPTransport exposes the combat endpoints.
type HTTPTransport struct {
	combatSvc *CombatService
	log       logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport on combatSvc.
func NewHTTPTransport(combatSvc *CombatService) *HTTPTransport {
	return &HTTPTransport{
		combatSvc: combatSvc,
		log:       logging.GetLogger("svc.combatsvc.http_transport"),
	}
}

// Routes sets up:
// - POST /combat: fight two creatures
// - GET /combat: list combats
// - GET /combat/{id}: one combat.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Post("/combat", http_.Handle(ht.log, "combat create", ht.handleCreate))
	r.Get("/combat", http_.Handle(ht.log, "combat list", ht.handleList))
	r.Get("/combat/{id}", http_.Handle(ht.log, "combat show", ht.handleShow))
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req domain.CreaturePairRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.combatSvc.Fight(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusCreated, created)

	return nil
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) error {
	combats, err := ht.combatSvc.ListCombats(r.Context())
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, domain.ListResponse[domain.Combat]{Items: combats})

	return nil
}

func (ht *HTTPTransport) handleShow(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	c, err := ht.combatSvc.GetCombat(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, c)

	return nil
}
