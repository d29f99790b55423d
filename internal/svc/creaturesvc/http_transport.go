package creaturesvc

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
)

// HTTPTransport exposes the creature endpoints.
type HTTPTransport struct {
	creatureSvc *CreatureService
	log         logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport on creatureSvc.
func NewHTTPTransport(creatureSvc *CreatureService) *HTTPTransport {
	return &HTTPTransport{
		creatureSvc: creatureSvc,
		log:         logging.GetLogger("svc.creaturesvc.http_transport"),
	}
}

// Routes sets up:
// - GET /creatures: list creatures
// - POST /creatures: create a creature
// - POST /creatures/generate: create a creature from a prompt
// - GET, PUT, DELETE /creatures/{id}: show, update and delete a creature
// - GET /creatures/{id}/image: redirect to the image, or proxy it with ?proxy=1[&width=N]
// - POST /creatures/{id}/image: regenerate the image URL.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Route("/creatures", func(r chi.Router) {
		r.Get("/", http_.Handle(ht.log, "creature list", ht.handleList))
		r.Post("/", http_.Handle(ht.log, "creature create", ht.handleCreate))
		r.Post("/generate", http_.Handle(ht.log, "creature generate", ht.handleGenerate))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", http_.Handle(ht.log, "creature show", ht.handleShow))
			r.Put("/", http_.Handle(ht.log, "creature update", ht.handleUpdate))
			r.Delete("/", http_.Handle(ht.log, "creature delete", ht.handleDelete))
			r.Get("/image", http_.Handle(ht.log, "creature image", ht.handleImage))
			r.Post("/image", http_.Handle(ht.log, "creature image regenerate", ht.handleRegenerateImage))
		})
	})
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) error {
	items, err := ht.creatureSvc.ListCreatures(r.Context())
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, domain.ListResponse[domain.CreatureSummary]{Items: items})

	return nil
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req domain.CreateCreatureRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.creatureSvc.CreateCreature(r.Context(), req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusCreated, created)

	return nil
}

func (ht *HTTPTransport) handleGenerate(w http.ResponseWriter, r *http.Request) error {
	var req domain.GenerateCreatureRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	created, err := ht.creatureSvc.GenerateCreature(r.Context(), req)
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

	c, err := ht.creatureSvc.GetCreature(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, c)

	return nil
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	var req domain.UpdateCreatureRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return err
	}

	updated, err := ht.creatureSvc.UpdateCreature(r.Context(), id, req)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, updated)

	return nil
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	if err := ht.creatureSvc.DeleteCreature(r.Context(), id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func (ht *HTTPTransport) handleImage(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	url, err := ht.creatureSvc.ImageURL(r.Context(), id)
	if err != nil {
		return err
	}

	if !http_.IsTruthy(r.URL.Query().Get("proxy")) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Location", url)
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte(url))

		return nil
	}

	width, err := http_.QueryInt(r, "width")
	if err != nil {
		return err
	}

	img, err := ht.creatureSvc.FetchImage(r.Context(), url, width)
	if errors.Is(err, domain.ErrUpstream) {
		ht.log.WarnContext(r.Context(), "creature image unavailable", "url", url, "error", err)

		http_.WriteJSON(w, http.StatusBadGateway, http_.ErrorResponse{
			Error: http_.ErrorBody{Message: domain.Message(err), URL: url},
		})

		return nil
	} else if err != nil {
		return err
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Body)

	return nil
}

func (ht *HTTPTransport) handleRegenerateImage(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		return err
	}

	updated, err := ht.creatureSvc.RegenerateImage(r.Context(), id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, http.StatusOK, updated)

	return nil
}
