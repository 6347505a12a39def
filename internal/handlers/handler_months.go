package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/dto"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
)

// monthHandler handles HTTP requests related to stored month snapshots.
type monthHandler struct {
	store  portssvc.MonthStoreSvc
	rules  portssvc.RuleApplierSvc
	export portssvc.ExportSvcFacade
}

func newMonthHandler(services *portssvc.ServiceContainer) *monthHandler {
	return &monthHandler{
		store:  services.Storage,
		rules:  services.Rules,
		export: services.Export,
	}
}

// registerMonthRoutes registers routes related to stored month snapshots.
func registerMonthRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newMonthHandler(services)

	months := rg.Group("/months")
	{
		months.GET("", h.listMonths)
		months.GET("/:account/:month", h.getMonth)
		months.PUT("/:account/:month", h.saveMonth)
		months.DELETE("/:account/:month", h.deleteMonth)
		months.POST("/:account/:month/reapply", h.reapplyMonth)
		months.GET("/:account/:month/export/postings", h.exportPostings)
		months.GET("/:account/:month/export/unmatched", h.exportUnmatched)
	}
}

func (h *monthHandler) listMonths(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	months, err := h.store.StoredMonths(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list stored months", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stored months"})
		return
	}

	out := make([]dto.MonthSummaryResponse, len(months))
	for i, month := range months {
		out[i] = dto.ToMonthSummaryResponse(month)
	}
	c.JSON(http.StatusOK, out)
}

func (h *monthHandler) getMonth(c *gin.Context) {
	key, result, ok := h.loadMonth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToMonthResponse(key, result))
}

func (h *monthHandler) saveMonth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key, ok := monthKey(c)
	if !ok {
		return
	}

	var req dto.SaveMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SaveMonth", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := req.ToRulesResult()
	if err := h.store.SaveMonth(c.Request.Context(), key, result); err != nil {
		logger.Error("Failed to save month", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save month"})
		return
	}

	logger.Info("Saved month snapshot", slog.String("month", key.Label()))
	c.JSON(http.StatusOK, dto.ToMonthResponse(key, result))
}

func (h *monthHandler) deleteMonth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key, ok := monthKey(c)
	if !ok {
		return
	}

	if err := h.store.DeleteMonth(c.Request.Context(), key); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Month not found"})
			return
		}
		logger.Error("Failed to delete month", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete month"})
		return
	}

	c.Status(http.StatusNoContent)
}

// reapplyMonth runs the current rules over the still-unclassified records of
// a stored month and persists the outcome. Existing classifications survive
// untouched.
func (h *monthHandler) reapplyMonth(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	key, previous, ok := h.loadMonth(c)
	if !ok {
		return
	}

	next, err := h.rules.Reapply(ctx, previous)
	if err != nil {
		if errors.Is(err, apperrors.ErrScript) {
			logger.Warn("Rule script failed on reapply", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to reapply rules", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reapply rules"})
		return
	}

	if err := h.store.SaveMonth(ctx, key, next); err != nil {
		logger.Error("Failed to save month", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save month"})
		return
	}

	logger.Info("Reapplied rules", slog.String("month", key.Label()))
	c.JSON(http.StatusOK, dto.ToMonthResponse(key, next))
}

func (h *monthHandler) exportPostings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key, result, ok := h.loadMonth(c)
	if !ok {
		return
	}

	data, err := h.export.PostingsCSV(c.Request.Context(), result.Results)
	if err != nil {
		logger.Error("Failed to render postings", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render postings"})
		return
	}

	filename := fmt.Sprintf("postings-%s-%04d-%02d.csv", domain.SanitizeAccount(key.Account), key.Year, int(key.Month))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *monthHandler) exportUnmatched(c *gin.Context) {
	key, result, ok := h.loadMonth(c)
	if !ok {
		return
	}

	data := h.export.UnmatchedStatement(c.Request.Context(), result.Results)

	filename := fmt.Sprintf("unmatched-%s-%04d-%02d.sta", domain.SanitizeAccount(key.Account), key.Year, int(key.Month))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (h *monthHandler) loadMonth(c *gin.Context) (domain.AccountMonth, *domain.RulesResult, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key, ok := monthKey(c)
	if !ok {
		return domain.AccountMonth{}, nil, false
	}

	result, err := h.store.StoredMonth(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Month not found"})
			return domain.AccountMonth{}, nil, false
		}
		logger.Error("Failed to load month", slog.String("month", key.Label()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load month"})
		return domain.AccountMonth{}, nil, false
	}
	return key, result, true
}

// monthKey parses the :account and :month path parameters, the latter in
// YYYY-MM form.
func monthKey(c *gin.Context) (domain.AccountMonth, bool) {
	account := c.Param("account")
	month, err := time.Parse("2006-01", c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be given as YYYY-MM"})
		return domain.AccountMonth{}, false
	}
	return domain.NewAccountMonth(account, month.Year(), month.Month()), true
}
