package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/dto"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
)

// tableHandler handles HTTP requests related to the lookup tables.
type tableHandler struct {
	store portssvc.TableStoreSvc
}

func newTableHandler(store portssvc.TableStoreSvc) *tableHandler {
	return &tableHandler{store: store}
}

// registerTableRoutes registers routes related to the lookup tables.
func registerTableRoutes(rg *gin.RouterGroup, storage portssvc.StorageSvcFacade) {
	h := newTableHandler(storage)

	tables := rg.Group("/tables")
	{
		tables.GET("", h.listTables)
		tables.GET("/:name/rows", h.getTable)
		tables.POST("/:name/rows", h.addRow)
		tables.POST("/:name/sort", h.sortTable)
	}
}

func (h *tableHandler) listTables(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tables, err := h.store.Tables(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list tables", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tables"})
		return
	}

	out := make([]dto.TableSummaryResponse, len(tables))
	for i, table := range tables {
		out[i] = dto.ToTableSummaryResponse(table)
	}
	c.JSON(http.StatusOK, out)
}

func (h *tableHandler) getTable(c *gin.Context) {
	table, ok := h.loadTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToTableResponse(table))
}

func (h *tableHandler) addRow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AddRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddRow", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	table, ok := h.loadTable(c)
	if !ok {
		return
	}

	row := domain.NewTableRow()
	for column, value := range req.Row {
		row.Put(column, value)
	}
	table.Add(row)

	if err := h.store.SaveTable(c.Request.Context(), table); err != nil {
		logger.Error("Failed to save table", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save table"})
		return
	}

	logger.Info("Added table row", slog.String("table", table.Name()))
	c.JSON(http.StatusOK, dto.ToTableResponse(table))
}

func (h *tableHandler) sortTable(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SortTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SortTable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	table, ok := h.loadTable(c)
	if !ok {
		return
	}

	table.SortBy(req.Columns...)
	if err := h.store.SaveTable(c.Request.Context(), table); err != nil {
		logger.Error("Failed to save table", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save table"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTableResponse(table))
}

func (h *tableHandler) loadTable(c *gin.Context) (*domain.Table, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	name := c.Param("name")

	table, err := h.store.Table(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return nil, false
		}
		logger.Error("Failed to load table", slog.String("table", name), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load table"})
		return nil, false
	}
	return table, true
}
