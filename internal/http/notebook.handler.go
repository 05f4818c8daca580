package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jasonharmongit/JASONdata/internal/appcontext"
	"github.com/jasonharmongit/JASONdata/internal/entity"
	"github.com/jasonharmongit/JASONdata/internal/tabular"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func CreateNotebook(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		title := c.PostForm("title")
		description := c.PostForm("description")
		rawTableName := c.PostForm("table_name")

		file, err := c.FormFile("file")
		if title == "" || rawTableName == "" || err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: title, table_name and file are required"})
			return
		}

		tableName, err := tabular.SanitizeTableName(rawTableName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table name"})
			return
		}

		notebook := entity.Notebook{
			ID:          uuid.New(),
			Title:       title,
			Description: description,
		}

		filePath := filepath.Join(ctx.UploadDir, notebook.ID.String()+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, filePath); err != nil {
			ctx.Logger.Error("Failed to save uploaded file", zap.Error(err), zap.String("path", filePath))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
			return
		}
		notebook.FilePath = filePath

		if err := ctx.DB.Create(&notebook).Error; err != nil {
			ctx.Logger.Error("Failed to create notebook", zap.Error(err), zap.String("title", title))
			removeUpload(ctx, filePath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notebook"})
			return
		}

		if err := ingestNotebookFile(c, ctx, &notebook, tableName); err != nil {
			// The notebook row was committed before materialization; roll it
			// back along with the uploaded file so no orphan survives.
			rollbackIngestion(ctx, &notebook, tableName)

			ctx.Logger.Error("Failed to ingest uploaded dataset",
				zap.Error(err),
				zap.String("notebook_id", notebook.ID.String()),
				zap.String("table", tableName))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest uploaded dataset"})
			return
		}

		c.JSON(http.StatusCreated, notebook)
	}
}

// ingestNotebookFile parses the notebook's uploaded file, materializes the
// derived data table, registers its schema, and records the table name on
// the notebook.
func ingestNotebookFile(c *gin.Context, ctx *appcontext.Context, notebook *entity.Notebook, tableName string) error {
	f, err := os.Open(notebook.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	frame, err := tabular.ParseCSV(f)
	if err != nil {
		return err
	}

	if err := ctx.Tables.Materialize(c.Request.Context(), tableName, frame); err != nil {
		return err
	}

	if err := registerSchema(ctx, notebook.ID, tableName, frame.Columns); err != nil {
		return err
	}

	notebook.TableName = &tableName
	return ctx.DB.Model(notebook).Update("table_name", tableName).Error
}

func registerSchema(ctx *appcontext.Context, notebookID uuid.UUID, tableName string, columns []string) error {
	schema, err := entity.NewTableSchema(notebookID, tableName, columns)
	if err != nil {
		return err
	}

	// Re-ingestion onto the same name replaces the previous registration.
	// Hard delete: a soft-deleted row would still hold the unique table_name.
	if err := ctx.DB.Unscoped().Where("table_name = ?", tableName).Delete(&entity.TableSchema{}).Error; err != nil {
		return err
	}
	return ctx.DB.Create(schema).Error
}

func rollbackIngestion(ctx *appcontext.Context, notebook *entity.Notebook, tableName string) {
	if err := ctx.Tables.Drop(context.Background(), tableName); err != nil {
		ctx.Logger.Error("Failed to drop partially ingested table", zap.Error(err), zap.String("table", tableName))
	}
	if err := ctx.DB.Unscoped().Where("notebook_id = ?", notebook.ID).Delete(&entity.TableSchema{}).Error; err != nil {
		ctx.Logger.Error("Failed to roll back schema registration", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
	}
	if err := ctx.DB.Unscoped().Delete(notebook).Error; err != nil {
		ctx.Logger.Error("Failed to roll back notebook", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
	}
	removeUpload(ctx, notebook.FilePath)
}

func removeUpload(ctx *appcontext.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		ctx.Logger.Error("Failed to remove uploaded file", zap.Error(err), zap.String("path", path))
	}
}

func GetNotebooks(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var notebooks []entity.Notebook
		if err := ctx.DB.Order("created_at DESC").Find(&notebooks).Error; err != nil {
			ctx.Logger.Error("Failed to fetch notebooks", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notebooks"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"notebooks": notebooks})
	}
}

func GetNotebook(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, notebook)
	}
}

type updateNotebookRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// UpdateNotebook touches descriptive fields only; the derived data table and
// table_name are immutable through this endpoint.
func UpdateNotebook(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}

		var req updateNotebookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			if *req.Title == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
				return
			}
			notebook.Title = *req.Title
			updates["title"] = *req.Title
		}
		if req.Description != nil {
			notebook.Description = *req.Description
			updates["description"] = *req.Description
		}

		if len(updates) > 0 {
			if err := ctx.DB.Model(notebook).Updates(updates).Error; err != nil {
				ctx.Logger.Error("Failed to update notebook", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notebook"})
				return
			}
		}

		c.JSON(http.StatusOK, notebook)
	}
}

func DeleteNotebook(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}

		// Dropping the derived table is best effort: a failure is logged and
		// the notebook row is removed regardless.
		if notebook.TableName != nil {
			if err := ctx.Tables.Drop(c.Request.Context(), *notebook.TableName); err != nil {
				ctx.Logger.Error("Failed to drop derived data table",
					zap.Error(err),
					zap.String("notebook_id", notebook.ID.String()),
					zap.String("table", *notebook.TableName))
			}
		}

		if err := ctx.DB.Unscoped().Where("notebook_id = ?", notebook.ID).Delete(&entity.TableSchema{}).Error; err != nil {
			ctx.Logger.Error("Failed to delete schema registration", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
		}
		if err := ctx.DB.Unscoped().Where("notebook_id = ?", notebook.ID).Delete(&entity.Dataset{}).Error; err != nil {
			ctx.Logger.Error("Failed to delete dataset record", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
		}

		if err := ctx.DB.Delete(notebook).Error; err != nil {
			ctx.Logger.Error("Failed to delete notebook", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notebook"})
			return
		}

		removeUpload(ctx, notebook.FilePath)

		c.JSON(http.StatusOK, gin.H{"message": "Notebook deleted successfully"})
	}
}

// findNotebook resolves the :notebookID path parameter, writing the error
// response itself when the id is malformed or unknown.
func findNotebook(c *gin.Context, ctx *appcontext.Context) (*entity.Notebook, bool) {
	id, err := uuid.Parse(c.Param("notebookID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notebook ID"})
		return nil, false
	}

	var notebook entity.Notebook
	if err := ctx.DB.Where("id = ?", id).First(&notebook).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notebook not found"})
			return nil, false
		}
		ctx.Logger.Error("Failed to fetch notebook", zap.Error(err), zap.String("notebook_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notebook"})
		return nil, false
	}

	return &notebook, true
}
