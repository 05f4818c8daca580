package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jasonharmongit/JASONdata/internal/appcontext"
	"github.com/jasonharmongit/JASONdata/internal/entity"
	"github.com/jasonharmongit/JASONdata/internal/tabular"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func GetNotebookData(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}
		if notebook.TableName == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notebook has no ingested dataset"})
			return
		}

		var schema entity.TableSchema
		if err := ctx.DB.Where("notebook_id = ?", notebook.ID).First(&schema).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Notebook has no ingested dataset"})
				return
			}
			ctx.Logger.Error("Failed to fetch table schema", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch table schema"})
			return
		}

		columns, err := schema.ColumnNames()
		if err != nil {
			ctx.Logger.Error("Failed to decode table schema", zap.Error(err), zap.String("table", schema.TableName))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode table schema"})
			return
		}

		opts := tabular.BrowseOptions{
			Limit:       intQuery(c, "limit", 100),
			Offset:      intQuery(c, "offset", 0),
			SortBy:      c.Query("sort_by"),
			SortOrder:   c.Query("sort_order"),
			FilterBy:    c.Query("filter_by"),
			FilterValue: c.Query("filter_value"),
		}

		result, err := ctx.Tables.Browse(c.Request.Context(), *notebook.TableName, columns, opts)
		if err != nil {
			if errors.Is(err, tabular.ErrUnknownColumn) || errors.Is(err, tabular.ErrBadSortOrder) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Logger.Error("Failed to browse notebook data",
				zap.Error(err),
				zap.String("notebook_id", notebook.ID.String()),
				zap.String("table", *notebook.TableName),
				zap.Any("options", opts))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notebook data"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       result.Rows,
			"columns":    result.Columns,
			"total":      result.Total,
			"table_name": *notebook.TableName,
		})
	}
}

type executeQueryRequest struct {
	Query  string `json:"query" binding:"required"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func ExecuteQuery(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}
		if notebook.TableName == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notebook has no ingested dataset"})
			return
		}

		var req executeQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
			return
		}

		result, err := ctx.Tables.RunQuery(c.Request.Context(), req.Query, req.Limit, req.Offset)
		if err != nil {
			if errors.Is(err, tabular.ErrNotSelect) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Only SELECT queries are allowed"})
				return
			}
			ctx.Logger.Error("Failed to execute query",
				zap.Error(err),
				zap.String("notebook_id", notebook.ID.String()),
				zap.String("query", req.Query))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute query"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       result.Rows,
			"columns":    result.Columns,
			"total":      result.Total,
			"table_name": *notebook.TableName,
		})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
