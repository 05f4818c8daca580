package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jasonharmongit/JASONdata/internal/appcontext"
	"github.com/jasonharmongit/JASONdata/internal/http/middleware"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	v1 := h.engine.Group("/api/v1")
	h.setupNotebookRoutes(v1)

	h.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to JASONdata API"})
	})
}

func (h *APIService) setupNotebookRoutes(group *gin.RouterGroup) {
	notebooks := group.Group("/notebooks")

	notebooks.POST("", CreateNotebook(h.context))
	notebooks.GET("", GetNotebooks(h.context))
	notebooks.GET("/:notebookID", GetNotebook(h.context))
	notebooks.PUT("/:notebookID", UpdateNotebook(h.context))
	notebooks.DELETE("/:notebookID", DeleteNotebook(h.context))

	notebooks.GET("/:notebookID/data", GetNotebookData(h.context))
	notebooks.POST("/:notebookID/execute-query", ExecuteQuery(h.context))
	notebooks.GET("/:notebookID/analysis-report", GetAnalysisReport(h.context))
	notebooks.POST("/:notebookID/dataset", CreateDataset(h.context))
}
