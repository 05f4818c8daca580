package entity

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Dataset struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	NotebookID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dataset_notebook" json:"notebook_id"`
	FilePath   string    `gorm:"type:text" json:"file_path"`
	// Metadata describes the source file itself (column list, row count),
	// independent of the derived data table.
	Metadata datatypes.JSON `json:"metadata"`
}

func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
