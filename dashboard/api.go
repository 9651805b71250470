package dashboard

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/render"
	"github.com/atelierlab/maquette/renderq"
	"github.com/atelierlab/maquette/store"
)

// maxUploadBytes caps raw asset uploads.
const maxUploadBytes = 20 << 20

// RegisterHTTP mounts all routes on the router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Post("/render", s.handleRender)

	r.Route("/api/render/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmitRender)
		r.Get("/{jobID}", s.handleRenderStatus)
	})

	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Post("/", s.handleSaveTemplate)
		r.Get("/{id}", s.handleLoadTemplate)
		r.Put("/{id}", s.handleUpdateTemplate)
		r.Delete("/{id}", s.handleDeleteTemplate)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", s.handleListCategories)
		r.Post("/", s.handleSaveCategory)
		r.Put("/{key}", s.handleSaveCategory)
		r.Delete("/{key}", s.handleDeleteCategory)
	})

	r.Route("/api/assets", func(r chi.Router) {
		r.Post("/", s.handleUploadAsset)
		r.Get("/{id}", s.handleServeAsset)
		r.Delete("/{id}", s.handleDeleteAsset)
	})
}

// --- render ---

func (s *Service) handleRender(w http.ResponseWriter, r *http.Request) {
	var req render.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	resp, err := s.Render(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, resp)
}

func (s *Service) handleSubmitRender(w http.ResponseWriter, r *http.Request) {
	var req render.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	id, err := s.SubmitRender(r.Context(), req)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 202, map[string]string{"id": id})
}

func (s *Service) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.RenderStatus(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if job.Result != nil && job.Result.Base64 == "" {
		job.Result.Base64 = base64.StdEncoding.EncodeToString(job.Result.Data)
	}
	writeJSON(w, 200, job)
}

// --- templates ---

type templatePayload struct {
	Name     string            `json:"name"`
	Template *element.Template `json:"template"`
}

func (s *Service) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTemplates(r.Context())
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if list == nil {
		list = []*store.TemplateRecord{}
	}
	writeJSON(w, 200, list)
}

func (s *Service) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var p templatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, 400, err)
		return
	}
	if p.Name == "" || p.Template == nil {
		writeError(w, 400, errors.New("name and template are required"))
		return
	}
	id, err := s.store.SaveTemplate(r.Context(), p.Name, p.Template)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 201, map[string]string{"id": id})
}

func (s *Service) handleLoadTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.LoadTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, rec)
}

func (s *Service) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var p templatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, 400, err)
		return
	}
	if p.Name == "" || p.Template == nil {
		writeError(w, 400, errors.New("name and template are required"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.UpdateTemplate(r.Context(), id, p.Name, p.Template); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"id": id, "status": "updated"})
}

func (s *Service) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

// --- categories ---

func (s *Service) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if list == nil {
		list = []*store.Category{}
	}
	writeJSON(w, 200, list)
}

func (s *Service) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var c store.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, 400, err)
		return
	}
	// PUT addresses the category by key; the body may omit it.
	if key := chi.URLParam(r, "key"); key != "" {
		c.Key = key
	}
	if err := s.store.SaveCategory(r.Context(), &c); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 201, c)
}

func (s *Service) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

// --- assets ---

func (s *Service) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, 400, err)
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, 400, errors.New("upload exceeds size limit"))
		return
	}
	a, err := s.store.UploadImage(r.Context(), data)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	writeJSON(w, 201, map[string]any{
		"id": a.ID, "url": a.URL(), "mime": a.Mime, "width": a.Width, "height": a.Height,
	})
}

func (s *Service) handleServeAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Asset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(200)
	w.Write(a.Data)
}

func (s *Service) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAsset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

// --- helpers ---

// statusFor maps sentinel errors to HTTP status codes: validation problems
// are the caller's fault, missing records are 404, everything else is a
// server-side failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, render.ErrValidation), errors.Is(err, element.ErrInvalid):
		return 400
	case errors.Is(err, store.ErrNotFound), errors.Is(err, renderq.ErrNotFound):
		return 404
	default:
		return 500
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
