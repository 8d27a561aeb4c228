package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bmaxza/tender-assistant/internal/chat"
	"github.com/bmaxza/tender-assistant/internal/corpus"
	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/session"
)

type Handler struct {
	Assistant *chat.Assistant
	Corpus    *corpus.Store
	Sessions  session.Store
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/health", h.health)
	e.POST("/chat", h.chat)
	e.GET("/session/:user_id", h.sessionInfo)
	e.GET("/agencies", h.agencies)
	e.GET("/categories", h.categories)
	e.GET("/tenders/:category", h.tendersByCategory)
}

func (h *Handler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "B-Max AI Assistant API is live",
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) health(c echo.Context) error {
	corpusTenders.Set(float64(h.Corpus.Len()))
	activeSessions.Set(float64(h.Sessions.Active()))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":                     "ok",
		"service":                    "B-Max Tender Assistant",
		"embedded_tender_count":      h.Corpus.Len(),
		"active_session_count":       h.Sessions.Active(),
		"available_agency_count":     len(h.Corpus.Agencies()),
		"phrasing_service_available": h.Assistant.PhrasingAvailable(),
		"timestamp":                  time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) chat(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id"`
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.UserID == "" || req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and prompt required")
	}

	reply := h.Assistant.ProcessPrompt(c.Request().Context(), req.Prompt, req.UserID)
	switch {
	case reply.Filtered:
		chatRequests.WithLabelValues(outcomeFiltered).Inc()
	case reply.Degraded:
		chatRequests.WithLabelValues(outcomeDegraded).Inc()
	default:
		chatRequests.WithLabelValues(outcomeAnswered).Inc()
	}
	activeSessions.Set(float64(h.Sessions.Active()))
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) sessionInfo(c echo.Context) error {
	userID := c.Param("user_id")
	sess, err := h.Sessions.Get(userID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sess.Summarize())
}

func (h *Handler) agencies(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"agencies": h.Corpus.Agencies()})
}

func (h *Handler) categories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"categories": h.Corpus.Categories()})
}

func (h *Handler) tendersByCategory(c echo.Context) error {
	category := c.Param("category")
	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	snapshot := h.Corpus.CurrentSnapshot()
	if snapshot == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, models.ErrCorpusUnavailable.Error())
	}

	needle := strings.ToLower(category)
	filtered := make([]models.TenderRecord, 0, limit)
	for _, t := range snapshot {
		if strings.Contains(strings.ToLower(t.Category), needle) {
			filtered = append(filtered, t)
			if len(filtered) == limit {
				break
			}
		}
	}
	if len(filtered) == 0 {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "No tenders found for '" + category + "'",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"category": category,
		"results":  filtered,
	})
}
