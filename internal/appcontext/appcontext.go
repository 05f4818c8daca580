package appcontext

import (
	"github.com/jasonharmongit/JASONdata/internal/report"
	"github.com/jasonharmongit/JASONdata/internal/tabular"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	UploadDir string

	Tables  *tabular.Service
	Reports *report.Generator
}
