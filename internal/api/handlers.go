package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"housing-dashboard/internal/analysis"
	"housing-dashboard/internal/dataset"
	"housing-dashboard/internal/facet"
	"housing-dashboard/internal/models"
	"housing-dashboard/internal/render"
	"housing-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	SessionCookie  = "hd_session"
	MaxRequestBody = 1 << 20 // 1MB
)

type Handler struct {
	Datasets *dataset.Cache
	Sessions *state.Store
	Renderer *render.Renderer
	Assets   render.Assets
	Logger   *zap.Logger
}

func NewHandler(datasets *dataset.Cache, sessions *state.Store, renderer *render.Renderer, assets render.Assets, logger *zap.Logger) *Handler {
	return &Handler{
		Datasets: datasets,
		Sessions: sessions,
		Renderer: renderer,
		Assets:   assets,
		Logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/api/status", h.GetStatus)
	r.Get("/api/columns", h.GetColumns)
	r.Post("/api/reload", h.Reload)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(h.Assets.Dir))))

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		// HTML dashboard
		r.Get("/", h.Dashboard)
		r.Post("/selections", h.SubmitSelections)
		r.Post("/reset", h.SubmitReset)

		// JSON API
		r.Get("/api/view", h.GetView)
		r.Put("/api/selections", h.ReplaceSelections)
		r.Post("/api/selections/{facet}", h.AddSelection)
		r.Delete("/api/selections/{facet}", h.RemoveSelection)
		r.Post("/api/reset", h.Reset)
	})
}

// ============================================================================
// Sessions
// ============================================================================

type sessionKey struct{}

// SessionMiddleware attaches the caller's filter session when the cookie names
// a live one. Sessions are only started by the first selection change, so
// read-only traffic never allocates one.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok := h.Sessions.Get(c.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// startSession creates a session and hands its cookie to the client
func (h *Handler) startSession(w http.ResponseWriter) *state.Session {
	sess := h.Sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.Logger.Debug("session started", zap.String("session", sess.ID))
	return sess
}

func sessionFrom(ctx context.Context) *state.Session {
	sess, _ := ctx.Value(sessionKey{}).(*state.Session)
	return sess
}

// ============================================================================
// Health & Status
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{Sessions: h.Sessions.Len()}
	if ds := h.Datasets.Current(); ds != nil {
		resp.Loaded = true
		resp.Source = ds.Source
		resp.Version = ds.Version
		resp.Rows = len(ds.Records)
		resp.Columns = ds.Columns
		resp.LoadedAt = ds.LoadedAt.Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

// GetColumns profiles every source column of the current dataset
func (h *Handler) GetColumns(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Datasets.Get(r.Context())
	if err != nil {
		h.Logger.Error("dataset unavailable", zap.Error(err))
		http.Error(w, fmt.Sprintf("Dataset unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, analysis.ProfileDataset(ds))
}

// Reload rereads the dataset source. On failure the previous dataset stays live.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Datasets.Reload(r.Context())
	if err != nil {
		h.Logger.Error("dataset reload failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to reload dataset: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":  "reloaded",
		"version": ds.Version,
		"rows":    len(ds.Records),
	})
}

// ============================================================================
// Filtering
// ============================================================================

// refresh applies mutate to the session's selections, runs one recompute pass
// and stores the sanitized selections back on the session. A caller without a
// session reads the unfiltered view; mutating starts a session.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request, mutate func(facet.Selections) facet.Selections) (*dataset.Dataset, facet.View, bool) {
	ds, err := h.Datasets.Get(r.Context())
	if err != nil {
		h.Logger.Error("dataset unavailable", zap.Error(err))
		http.Error(w, fmt.Sprintf("Dataset unavailable: %v", err), http.StatusServiceUnavailable)
		return nil, facet.View{}, false
	}

	sess := sessionFrom(r.Context())
	if sess == nil {
		if mutate == nil {
			return ds, facet.Refresh(ds.Records, facet.Reset()), true
		}
		sess = h.startSession(w)
	}

	sel := sess.Selections
	if mutate != nil {
		sel = mutate(sel)
	}
	view := facet.Refresh(ds.Records, sel)
	if !h.Sessions.SetSelections(sess.ID, view.Selections) {
		h.Logger.Warn("session vanished during refresh", zap.String("session", sess.ID))
	}
	return ds, view, true
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	ds, view, ok := h.refresh(w, r, nil)
	if !ok {
		return
	}
	writeJSON(w, h.viewResponse(ds, view))
}

func (h *Handler) ReplaceSelections(w http.ResponseWriter, r *http.Request) {
	var body models.SelectionBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ds, view, ok := h.refresh(w, r, func(facet.Selections) facet.Selections {
		return facet.Reset().
			Set(facet.Category, body.Category).
			Set(facet.Subcategory, body.Subcategory).
			Set(facet.Location, body.Location).
			Set(facet.Stakeholder, body.Stakeholder).
			SetYears(body.Timeline)
	})
	if !ok {
		return
	}
	writeJSON(w, h.viewResponse(ds, view))
}

func (h *Handler) AddSelection(w http.ResponseWriter, r *http.Request) {
	f, err := facet.ParseFacet(chi.URLParam(r, "facet"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req models.SelectionValueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ds, view, ok := h.refresh(w, r, func(sel facet.Selections) facet.Selections {
		return sel.Add(f, req.Value)
	})
	if !ok {
		return
	}
	writeJSON(w, h.viewResponse(ds, view))
}

func (h *Handler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	f, err := facet.ParseFacet(chi.URLParam(r, "facet"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value := r.URL.Query().Get("value")
	ds, view, ok := h.refresh(w, r, func(sel facet.Selections) facet.Selections {
		return sel.Remove(f, value)
	})
	if !ok {
		return
	}
	writeJSON(w, h.viewResponse(ds, view))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ds, view, ok := h.refresh(w, r, func(facet.Selections) facet.Selections {
		return facet.Reset()
	})
	if !ok {
		return
	}
	writeJSON(w, h.viewResponse(ds, view))
}

// ============================================================================
// HTML dashboard
// ============================================================================

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ds, view, ok := h.refresh(w, r, nil)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Renderer.Dashboard(w, view, len(ds.Records)); err != nil {
		h.Logger.Error("dashboard render failed", zap.Error(err))
	}
}

// SubmitSelections takes the sidebar form. Every facet is replaced, so a facet
// left without selected options is cleared.
func (h *Handler) SubmitSelections(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, _, ok := h.refresh(w, r, func(facet.Selections) facet.Selections {
		sel := facet.Reset()
		for _, f := range facet.All {
			sel = sel.Set(f, r.PostForm[string(f)])
		}
		return sel
	})
	if !ok {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) SubmitReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess != nil {
		h.Sessions.Reset(sess.ID)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *Handler) viewResponse(ds *dataset.Dataset, view facet.View) models.ViewResponse {
	resp := models.ViewResponse{
		Rows:       len(view.Records),
		Total:      len(ds.Records),
		Unfiltered: view.Unfiltered,
		Facets:     make([]models.FacetState, 0, len(view.Facets)),
		Records:    make([]models.RecordView, 0, len(view.Records)),
		Selections: models.SelectionBody{
			Category:    nonNil(view.Selections.Category),
			Subcategory: nonNil(view.Selections.Subcategory),
			Location:    nonNil(view.Selections.Location),
			Stakeholder: nonNil(view.Selections.Stakeholder),
			Timeline:    nonNil(view.Selections.Timeline),
		},
	}

	for _, st := range view.Facets {
		resp.Facets = append(resp.Facets, models.FacetState{
			Name:     string(st.Facet),
			Label:    st.Facet.Label(),
			Selected: nonNil(st.Selected),
			Options:  nonNil(st.Options),
		})
	}
	for _, rec := range view.Records {
		resp.Records = append(resp.Records, models.RecordView{
			ID:         rec.ID,
			Category:   rec.Category,
			Initiative: rec.Initiative,
			Fields:     rec.Fields,
			AssetURL:   h.Assets.URL(rec.ID),
		})
	}
	return resp
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
