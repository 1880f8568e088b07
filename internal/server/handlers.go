package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/metrics"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/gorilla/websocket"
)

const maxRevalidateBody = 1 << 20

// listingItem is a post as the "load more" client renders it.
type listingItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Date     string `json:"date"`
}

type listingResponse struct {
	Posts   []listingItem `json:"posts"`
	HasMore bool          `json:"hasMore"`
	Error   string        `json:"error,omitempty"`
}

type wsRequest struct {
	Action string `json:"action"`
}

type revalidateRequest struct {
	Slugs []string `json:"slugs"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prismic := s.cfg.Prismic

	first, err := s.cms.QueryFirstPage(ctx, prismic.DocumentType, ListingFields(prismic.DocumentType), prismic.PageSize)
	if err != nil {
		s.logger.Error("failed to query first page", "err", err)
		http.Error(w, "failed to load posts", http.StatusBadGateway)
		return
	}

	ctrl := content.NewController(s.cms, content.WithDuplicateHook(func(id string) {
		s.logger.Warn("duplicate post dropped from listing", "id", id)
	}))
	if err := ctrl.Initialize(first); err != nil {
		s.logger.Error("failed to initialize listing", "err", err)
		status := http.StatusBadGateway
		if errors.Is(err, content.ErrMalformedRecord) {
			status = http.StatusInternalServerError
		}
		http.Error(w, "failed to load posts", status)
		return
	}

	token := ""
	if ctrl.HasMore() {
		_, token, err = s.sessions.create(ctrl)
		if err != nil {
			s.logger.Error("failed to create listing session", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.render.Listing(w, ctrl.Posts(), ctrl.HasMore(), token); err != nil {
		s.logger.Error("failed to render listing", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.lookup(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	page, err := sess.loadMore(r.Context())
	status := loadStatus(err)
	metrics.PagesLoaded.WithLabelValues(status).Inc()

	switch status {
	case "ok":
		writeJSON(w, http.StatusOK, s.listingResponse(page))
	case "exhausted":
		w.WriteHeader(http.StatusNoContent)
	case "busy":
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("failed to load next page", "session", sess.id, "err", err)
		writeError(w, http.StatusBadGateway, "failed to load next page")
	}
}

// handleWebsocket serves "load more" over a websocket. Messages on one
// connection are handled in order.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.lookup(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "session", sess.id, "err", err)
			}
			return
		}
		s.sessions.touch(sess)
		if req.Action != "more" {
			if err := conn.WriteJSON(listingResponse{Posts: []listingItem{}, Error: "unknown action"}); err != nil {
				return
			}
			continue
		}

		page, err := sess.loadMore(r.Context())
		status := loadStatus(err)
		metrics.PagesLoaded.WithLabelValues(status).Inc()

		var reply listingResponse
		switch status {
		case "ok":
			reply = s.listingResponse(page)
		case "exhausted":
			reply = listingResponse{Posts: []listingItem{}}
		case "busy":
			reply = listingResponse{Posts: []listingItem{}, HasMore: true, Error: ErrSessionBusy.Error()}
		default:
			s.logger.Warn("failed to load next page", "session", sess.id, "err", err)
			reply = listingResponse{Posts: []listingItem{}, HasMore: true, Error: "failed to load next page"}
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	view, err := s.pages.View(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.logger.Error("failed to get post view", "slug", r.PathValue("slug"), "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	switch view.State {
	case content.ViewLoading:
		status = http.StatusAccepted
		w.Header().Set("Cache-Control", "no-store")
	case content.ViewNotFound:
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.render.Post(w, view); err != nil {
		s.logger.Error("failed to render post", "slug", r.PathValue("slug"), "err", err)
	}
}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req revalidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRevalidateBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Slugs) == 0 {
		writeError(w, http.StatusBadRequest, "slugs are required")
		return
	}

	for _, slug := range req.Slugs {
		if err := s.pages.Invalidate(r.Context(), slug); err != nil {
			s.logger.Error("failed to invalidate post", "slug", slug, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to revalidate "+slug)
			return
		}
	}
	s.logger.Info("posts revalidated", "slugs", req.Slugs)
	writeJSON(w, http.StatusOK, map[string]any{"revalidated": req.Slugs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.len(),
	})
}

func (s *Server) listingResponse(page models.PaginatedPosts) listingResponse {
	items := make([]listingItem, 0, len(page.Posts))
	for _, p := range page.Posts {
		items = append(items, listingItem{
			ID:       p.ID,
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
			Date:     s.render.locale.formatDate(p.PublishedAt),
		})
	}
	return listingResponse{Posts: items, HasMore: page.HasMore}
}

func loadStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, content.ErrNoMorePages):
		return "exhausted"
	case errors.Is(err, ErrSessionBusy):
		return "busy"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
