package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/dto"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
	"github.com/mathisdt/optigem-spoonfeeder/internal/platform/config"
)

// statementHandler handles HTTP requests for statement uploads.
type statementHandler struct {
	parser  portssvc.ParserSvc
	rules   portssvc.RuleSvcFacade
	storage portssvc.StorageSvcFacade
	cfg     *config.Config
}

func newStatementHandler(cfg *config.Config, services *portssvc.ServiceContainer) *statementHandler {
	return &statementHandler{
		parser:  services.Parser,
		rules:   services.Rules,
		storage: services.Storage,
		cfg:     cfg,
	}
}

// registerStatementRoutes registers routes related to statement uploads.
// Every upload triggers a full parse (and possibly a classification run),
// so both endpoints sit behind the rate limit.
func registerStatementRoutes(rg *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer, rateLimit gin.HandlerFunc) {
	h := newStatementHandler(cfg, services)

	statements := rg.Group("/statements", rateLimit)
	{
		statements.POST("/parse", h.parseStatement)
		statements.POST("/classify", h.classifyStatement)
	}
}

// parseStatement reads the uploaded statement file and returns the parsed
// records without touching the rule engine.
func (h *statementHandler) parseStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	parsed, err := h.parser.Parse(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, apperrors.ErrParse) {
			logger.Warn("Uploaded statement is malformed", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to parse statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse statement"})
		return
	}

	h.warnUnknownAccounts(c, parsed.Entries)
	c.JSON(http.StatusOK, dto.ToParseStatementResponse(parsed.Entries))
}

// warnUnknownAccounts flags account labels that are not in the configured
// registry. Purely informational, classification works either way.
func (h *statementHandler) warnUnknownAccounts(c *gin.Context, records []*domain.SourceRecord) {
	if len(h.cfg.BankAccounts) == 0 {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	seen := make(map[string]bool)
	for _, record := range records {
		if seen[record.AccountLabel] {
			continue
		}
		seen[record.AccountLabel] = true
		if h.cfg.BankAccountByLabel(record.AccountLabel) == nil {
			logger.Warn("Statement references an unconfigured account",
				slog.String("account", record.AccountLabel))
		}
	}
}

// classifyStatement parses the upload, runs the rule script over it and
// stores one snapshot per account and month found in the statement.
func (h *statementHandler) classifyStatement(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	parsed, err := h.parser.Parse(ctx, file)
	if err != nil {
		if errors.Is(err, apperrors.ErrParse) {
			logger.Warn("Uploaded statement is malformed", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to parse statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse statement"})
		return
	}

	h.warnUnknownAccounts(c, parsed.Entries)

	aggregate, err := h.rules.Apply(ctx, parsed)
	if err != nil {
		if errors.Is(err, apperrors.ErrScript) {
			logger.Warn("Rule script failed", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("No rules stored yet")
			c.JSON(http.StatusConflict, gin.H{"error": "No rules stored yet, upload rules first"})
			return
		}
		logger.Error("Failed to classify statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to classify statement"})
		return
	}

	for key, snapshot := range splitByMonth(aggregate) {
		if err := h.storage.SaveMonth(ctx, key, snapshot); err != nil {
			logger.Error("Failed to store month snapshot",
				slog.String("month", key.Label()), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store month snapshot"})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ToClassifyResponse(aggregate))
}

// openUpload fetches the "file" part of the multipart upload.
func (h *statementHandler) openUpload(c *gin.Context) (multipart.File, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	header, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Missing statement upload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expecting a multipart upload in the 'file' field"})
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		logger.Error("Failed to open statement upload", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return nil, false
	}
	return file, true
}

// splitByMonth partitions one classification run into per-account-month
// snapshots. The shared log text is carried into every snapshot.
func splitByMonth(aggregate *domain.RulesResult) map[domain.AccountMonth]*domain.RulesResult {
	out := make(map[domain.AccountMonth]*domain.RulesResult)
	for _, result := range aggregate.Results {
		key := domain.AccountMonthOf(result.Input)
		snapshot, ok := out[key]
		if !ok {
			snapshot = &domain.RulesResult{Log: aggregate.Log}
			out[key] = snapshot
		}
		snapshot.Results = append(snapshot.Results, result)
	}
	return out
}
