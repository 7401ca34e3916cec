package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"venue_reputation/internal/adapters/identity"
	"venue_reputation/internal/app"
	"venue_reputation/internal/domain"
)

const (
	defaultVenueLimit = 50
	maxVenueLimit     = 200
)

type Handlers struct {
	Queries   *app.QueryService
	Reviews   *app.ReviewService
	Dashboard *app.DashboardService
	Content   *app.ContentService
	Insights  *app.InsightService
	Guard     *app.OwnershipGuard

	// BatchDelay is the pause between generations in an admin batch run.
	BatchDelay time.Duration

	batchRunning atomic.Bool
}

// Routes holds what MountHandlers needs beyond the handlers themselves.
type Routes struct {
	Verifier *identity.Verifier
	// InsightsPerMinute caps POST /v1/insights per user.
	InsightsPerMinute int
}

func (s *Server) MountHandlers(h *Handlers, rt Routes) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		// public reads
		r.Get("/venues", h.listVenues)
		r.Get("/venues/{id}", h.getVenue)
		r.Get("/venues/{id}/reviews", h.publicReviews)
		r.Get("/venues/{id}/insights", h.getInsight)
		r.Get("/venues/{id}/menus", h.listMenus)
		r.Get("/venues/{id}/promotions", h.listPromotions)
		r.Get("/venues/{id}/images", h.listImages)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(rt.Verifier))

			r.Post("/reviews", h.createReview)
			r.Patch("/reviews/{id}", h.updateReview)
			r.Delete("/reviews/{id}", h.deleteReview)

			r.Get("/my-venues", h.myVenues)
			r.Get("/venues/{id}/dashboard/stats", h.dashboardStats)
			r.Get("/venues/{id}/dashboard/reviews", h.dashboardReviews)

			r.Post("/review-responses", h.createResponse)
			r.Patch("/review-responses/{id}", h.updateResponse)
			r.Delete("/review-responses/{id}", h.deleteResponse)

			r.Post("/promotions", h.createPromotion)
			r.Patch("/promotions/{id}", h.updatePromotion)
			r.Delete("/promotions/{id}", h.deletePromotion)

			r.Post("/menus", h.createMenu)
			r.Patch("/menus/{id}", h.updateMenu)
			r.Delete("/menus/{id}", h.deleteMenu)

			r.Post("/images", h.createImage)
			r.Patch("/images/{id}/order", h.reorderImage)
			r.Delete("/images/{id}", h.deleteImage)

			r.With(LimitPerUser(rt.InsightsPerMinute, time.Minute)).Post("/insights", h.triggerInsight)

			r.With(RequireAdmin).Post("/admin/insights/batch", h.batchInsights)
		})
	})
}

func principal(r *http.Request) identity.Principal {
	p, _ := identity.FromContext(r.Context())
	return p
}

// ---------- public reads ----------

func (h *Handlers) listVenues(w http.ResponseWriter, r *http.Request) {
	q := domain.VenuesQuery{Limit: defaultVenueLimit}
	if d := r.URL.Query().Get("district"); d != "" {
		q.District = &d
	}
	if c := r.URL.Query().Get("category"); c != "" {
		q.Category = &c
	}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxVenueLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	out, err := h.Queries.ListVenues(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) getVenue(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.GetVenue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) publicReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Dashboard.PublicReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

// getInsight answers null when the venue has no insight yet.
func (h *Handlers) getInsight(w http.ResponseWriter, r *http.Request) {
	out, err := h.Insights.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listMenus(w http.ResponseWriter, r *http.Request) {
	out, err := h.Content.Menus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listPromotions(w http.ResponseWriter, r *http.Request) {
	out, err := h.Content.ActivePromotions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listImages(w http.ResponseWriter, r *http.Request) {
	out, err := h.Content.Images(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

// ---------- reviews ----------

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var req app.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p := principal(r)
	rv, err := h.Reviews.Create(r.Context(), p.UserID, p.Name, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app.MapReview(rv))
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rv, err := h.Reviews.Update(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.MapReview(rv))
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Reviews.Delete(r.Context(), principal(r).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- owner dashboard ----------

func (h *Handlers) myVenues(w http.ResponseWriter, r *http.Request) {
	vs, err := h.Guard.ListOwnedVenues(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.MapVenues(vs))
}

func (h *Handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Dashboard.Stats(r.Context(), principal(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) dashboardReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Dashboard.ReviewsWithResponses(r.Context(), principal(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createResponse(w http.ResponseWriter, r *http.Request) {
	var req app.CreateResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Dashboard.CreateResponse(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateResponse(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Dashboard.UpdateResponse(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteResponse(w http.ResponseWriter, r *http.Request) {
	h.deleteScoped(w, r, h.Dashboard.DeleteResponse)
}

// deleteScoped reads the venue reference from ?venueId= or the JSON body.
func (h *Handlers) deleteScoped(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, userID, id string, ref app.VenueRef) error) {
	ref := app.VenueRef{VenueID: r.URL.Query().Get("venueId")}
	if ref.VenueID == "" && r.ContentLength != 0 {
		if err := decodeJSON(r, &ref); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := del(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), ref); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- content ----------

func (h *Handlers) createPromotion(w http.ResponseWriter, r *http.Request) {
	var req app.PromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.CreatePromotion(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updatePromotion(w http.ResponseWriter, r *http.Request) {
	var req app.PromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.UpdatePromotion(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deletePromotion(w http.ResponseWriter, r *http.Request) {
	h.deleteScoped(w, r, h.Content.DeletePromotion)
}

func (h *Handlers) createMenu(w http.ResponseWriter, r *http.Request) {
	var req app.MenuRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.CreateMenu(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateMenu(w http.ResponseWriter, r *http.Request) {
	var req app.MenuRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.UpdateMenu(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteMenu(w http.ResponseWriter, r *http.Request) {
	h.deleteScoped(w, r, h.Content.DeleteMenu)
}

func (h *Handlers) createImage(w http.ResponseWriter, r *http.Request) {
	var req app.ImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.CreateImage(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) reorderImage(w http.ResponseWriter, r *http.Request) {
	var req app.ImageOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Content.ReorderImage(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteImage(w http.ResponseWriter, r *http.Request) {
	h.deleteScoped(w, r, h.Content.DeleteImage)
}

// ---------- insights ----------

func (h *Handlers) triggerInsight(w http.ResponseWriter, r *http.Request) {
	var req app.InsightTriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Insights.Trigger(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// batchInsights starts a full generation run in the background; only one
// run may be in progress per process.
func (h *Handlers) batchInsights(w http.ResponseWriter, r *http.Request) {
	if !h.batchRunning.CompareAndSwap(false, true) {
		writeProblem(w, http.StatusConflict, "Conflict", "an insight batch is already running")
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		defer h.batchRunning.Store(false)
		res, err := h.Insights.GenerateAll(ctx, h.BatchDelay)
		if err != nil {
			log.Error().Err(err).Msg("insight batch aborted")
			return
		}
		log.Info().Int("processed", res.Processed).Int("succeeded", res.Succeeded()).Int("failed", res.Errored).Msg("insight batch done")
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
