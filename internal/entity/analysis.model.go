package entity

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analysis records a saved query together with its result and an optional
// visualization payload. No endpoint writes it yet.
type Analysis struct {
	gorm.Model
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	NotebookID    uuid.UUID      `gorm:"type:uuid;not null" json:"notebook_id"`
	Query         string         `gorm:"type:text" json:"query"`
	Result        datatypes.JSON `json:"result"`
	Visualization datatypes.JSON `json:"visualization"`
}

func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
