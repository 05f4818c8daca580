package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notebook struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	// TableName is the sanitized name of the derived data table. Nil until a
	// dataset has been ingested successfully.
	TableName *string  `gorm:"type:varchar(63)" json:"table_name"`
	FilePath  string   `gorm:"type:text" json:"file_path"`
	Dataset   *Dataset `gorm:"foreignKey:NotebookID" json:"dataset,omitempty"`
}

func (n *Notebook) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
