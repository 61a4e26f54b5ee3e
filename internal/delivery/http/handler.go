package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

const (
	serviceName    = "vendora-backend"
	serviceVersion = "1.0.0"

	defaultSummaryWindow = 30 * 24 * time.Hour
)

// AutoLinker decides between linking and creating catalog entries
type AutoLinker interface {
	AutoLink(ctx context.Context, caller domain.Identity, req domain.AutoLinkRequest) (*domain.AutoLinkResult, error)
}

// Suggester returns ranked catalog suggestions for a typed product name
type Suggester interface {
	Suggest(ctx context.Context, query string, categoryID *uuid.UUID, limit int) (*domain.SuggestResult, error)
}

// FeedbackRecorder appends and summarizes match feedback
type FeedbackRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, in domain.FeedbackInput, source string) error
	Summary(ctx context.Context, since time.Time) (*domain.FeedbackSummary, error)
}

// CatalogReader loads a catalog entry with its offer summary
type CatalogReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.CatalogDetail, error)
}

// HandlerDeps groups the use cases served over HTTP. Health may be nil.
type HandlerDeps struct {
	AutoLink    AutoLinker
	Suggestions Suggester
	Feedback    FeedbackRecorder
	Catalog     CatalogReader
	Health      func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	deps HandlerDeps
	log  *logger.Logger
	now  func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(deps HandlerDeps, log *logger.Logger) *Handler {
	return &Handler{
		deps: deps,
		log:  log.With("component", "handler"),
		now:  time.Now,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if h.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Health(ctx); err != nil {
			h.log.Warn("health check failed", "error", err)
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": serviceName,
		"version": serviceVersion,
	})
}

// AutoLink handles POST /products/auto-link
func (h *Handler) AutoLink(c *gin.Context) {
	caller, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errUnresolvedCaller)
		return
	}

	var req domain.AutoLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.deps.AutoLink.AutoLink(c.Request.Context(), caller, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{
		"success":   true,
		"action":    result.Action,
		"catalogId": result.CatalogID,
		"offerId":   result.OfferID,
		"product":   result.Product,
	}
	if result.Confidence != nil {
		body["confidence"] = *result.Confidence
	}
	c.JSON(http.StatusOK, body)
}

// Suggestions handles GET /products/suggestions. Lookup failures degrade to
// an empty list.
func (h *Handler) Suggestions(c *gin.Context) {
	query := c.Query("q")

	categoryID, err := optionalUUID(c.Query("categoryId"))
	if err != nil {
		h.respondError(c, domain.NewValidationError("categoryId", "must be a UUID"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	result, err := h.deps.Suggestions.Suggest(c.Request.Context(), query, categoryID, limit)
	if err != nil {
		h.log.Debug("suggestions aborted", "error", err)
		result = &domain.SuggestResult{Suggestions: []domain.MatchSuggestion{}, Query: strings.TrimSpace(query)}
	}
	c.JSON(http.StatusOK, result)
}

type feedbackRequest struct {
	InputText          string   `json:"inputText"`
	SuggestedCatalogID *string  `json:"suggestedCatalogId"`
	UserChoice         bool     `json:"userChoice"`
	ActualCatalogID    *string  `json:"actualCatalogId"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
	CategoryID         *string  `json:"categoryId"`
}

func (r feedbackRequest) toInput() (domain.FeedbackInput, error) {
	in := domain.FeedbackInput{
		InputText:       r.InputText,
		UserChoice:      r.UserChoice,
		ConfidenceScore: r.ConfidenceScore,
	}
	var err error
	if in.SuggestedCatalogID, err = optionalUUIDPtr(r.SuggestedCatalogID); err != nil {
		return in, domain.NewValidationError("suggestedCatalogId", "must be a UUID")
	}
	if in.ActualCatalogID, err = optionalUUIDPtr(r.ActualCatalogID); err != nil {
		return in, domain.NewValidationError("actualCatalogId", "must be a UUID")
	}
	if in.CategoryID, err = optionalUUIDPtr(r.CategoryID); err != nil {
		return in, domain.NewValidationError("categoryId", "must be a UUID")
	}
	return in, nil
}

// Feedback handles POST /products/suggestions/feedback
func (h *Handler) Feedback(c *gin.Context) {
	caller, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errUnresolvedCaller)
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.deps.Feedback.Record(c.Request.Context(), caller.UserID, in, domain.FeedbackSourceExplicit); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FeedbackSummary handles GET /products/suggestions/feedback/summary.
// since is RFC 3339 and defaults to 30 days ago.
func (h *Handler) FeedbackSummary(c *gin.Context) {
	since := h.now().Add(-defaultSummaryWindow)
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(c, domain.NewValidationError("since", "must be an RFC 3339 timestamp"))
			return
		}
		since = t
	}

	summary, err := h.deps.Feedback.Summary(c.Request.Context(), since)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CatalogEntry handles GET /catalog/:id
func (h *Handler) CatalogEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, domain.NewValidationError("id", "must be a UUID"))
		return
	}

	detail, err := h.deps.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// respondError maps domain errors onto status codes. Persistence failures
// carry the failed step, and partial failures the orphaned catalog id.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		partial    *domain.PartialFailureError
		persist    *domain.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &partial):
		h.log.Error("partial failure", "step", partial.Step, "catalogId", partial.CatalogID, "error", partial.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     err.Error(),
			"step":      partial.Step,
			"catalogId": partial.CatalogID,
		})
	case errors.As(err, &persist):
		h.log.Error("persistence failure", "step", persist.Step, "error", persist.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"step":  persist.Step,
		})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalUUIDPtr(raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	return optionalUUID(*raw)
}
