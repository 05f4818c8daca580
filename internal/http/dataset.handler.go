package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jasonharmongit/JASONdata/internal/appcontext"
	"github.com/jasonharmongit/JASONdata/internal/entity"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateDataset attaches source-file metadata (raw column headers and row
// count) to a notebook by re-reading its uploaded file. At most one dataset
// per notebook; the unique index on notebook_id backs the pre-insert check.
func CreateDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebook, ok := findNotebook(c, ctx)
		if !ok {
			return
		}
		if notebook.FilePath == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notebook has no uploaded file"})
			return
		}

		var existing entity.Dataset
		err := ctx.DB.Where("notebook_id = ?", notebook.ID).First(&existing).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Notebook already has a dataset"})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.Logger.Error("Failed to check for existing dataset", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for existing dataset"})
			return
		}

		metadata, err := sourceFileMetadata(notebook.FilePath)
		if err != nil {
			ctx.Logger.Error("Failed to read source file metadata",
				zap.Error(err),
				zap.String("notebook_id", notebook.ID.String()),
				zap.String("path", notebook.FilePath))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read source file"})
			return
		}

		dataset := entity.Dataset{
			ID:         uuid.New(),
			Name:       filepath.Base(notebook.FilePath),
			NotebookID: notebook.ID,
			FilePath:   notebook.FilePath,
			Metadata:   metadata,
		}
		if err := ctx.DB.Create(&dataset).Error; err != nil {
			ctx.Logger.Error("Failed to store dataset", zap.Error(err), zap.String("notebook_id", notebook.ID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store dataset"})
			return
		}

		c.JSON(http.StatusCreated, dataset)
	}
}

// sourceFileMetadata describes the uploaded file as-is: the original,
// unsanitized header and the data row count.
func sourceFileMetadata(path string) (datatypes.JSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}

	rowCount := 0
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		rowCount++
	}

	encoded, err := json.Marshal(map[string]interface{}{
		"columns":   header,
		"row_count": rowCount,
	})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}
