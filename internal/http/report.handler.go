package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jasonharmongit/JASONdata/internal/appcontext"
	"go.uber.org/zap"
)

func GetAnalysisReport(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}
		if notebook.TableName == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notebook has no ingested dataset"})
			return
		}

		report, err := ctx.Reports.Generate(c.Request.Context(), *notebook.TableName)
		if err != nil {
			ctx.Logger.Error("Failed to generate analysis report",
				zap.Error(err),
				zap.String("notebook_id", notebook.ID.String()),
				zap.String("table", *notebook.TableName))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate analysis report"})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
