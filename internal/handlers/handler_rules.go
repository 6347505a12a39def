package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/dto"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
)

// ruleHandler handles HTTP requests related to the rule script.
type ruleHandler struct {
	validator portssvc.RuleValidatorSvc
	store     portssvc.RulesStoreSvc
}

func newRuleHandler(validator portssvc.RuleValidatorSvc, store portssvc.RulesStoreSvc) *ruleHandler {
	return &ruleHandler{validator: validator, store: store}
}

// registerRuleRoutes registers routes related to the rule script.
func registerRuleRoutes(rg *gin.RouterGroup, rules portssvc.RuleSvcFacade, storage portssvc.StorageSvcFacade) {
	h := newRuleHandler(rules, storage)

	group := rg.Group("/rules")
	{
		group.GET("", h.getRules)
		group.PUT("", h.saveRules)
		group.POST("/validate", h.validateRules)
	}
}

func (h *ruleHandler) getRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rulesText, err := h.store.Rules(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No rules stored yet"})
			return
		}
		logger.Error("Failed to load rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rules"})
		return
	}

	c.JSON(http.StatusOK, dto.RulesResponse{Rules: rulesText})
}

// saveRules validates the uploaded script first, a broken script is never
// persisted.
func (h *ruleHandler) saveRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SaveRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SaveRules", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if validation := h.validator.Validate(c.Request.Context(), req.Rules); validation.Error {
		logger.Warn("Rejected invalid rules", slog.Int("line", validation.ErrorLine))
		c.JSON(http.StatusUnprocessableEntity, dto.ToRuleValidationResponse(validation))
		return
	}

	if err := h.store.SaveRules(c.Request.Context(), req.Rules); err != nil {
		logger.Error("Failed to save rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save rules"})
		return
	}

	logger.Info("Rules saved")
	c.JSON(http.StatusOK, dto.RulesResponse{Rules: req.Rules})
}

func (h *ruleHandler) validateRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ValidateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ValidateRules", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	validation := h.validator.Validate(c.Request.Context(), req.Rules)
	c.JSON(http.StatusOK, dto.ToRuleValidationResponse(validation))
}
