package entity

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TableSchema is the schema registry for derived data tables: one row per
// ingested notebook, mapping the sanitized table name to its sanitized
// column names. Read paths use it as the identifier allowlist instead of
// introspecting the database catalog.
type TableSchema struct {
	gorm.Model
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	NotebookID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_schema_notebook" json:"notebook_id"`
	TableName  string         `gorm:"type:varchar(63);not null;uniqueIndex:idx_schema_table_name" json:"table_name"`
	Columns    datatypes.JSON `json:"columns"`
}

func (s *TableSchema) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewTableSchema builds a registry row with the column list encoded as JSON.
func NewTableSchema(notebookID uuid.UUID, tableName string, columns []string) (*TableSchema, error) {
	encoded, err := json.Marshal(columns)
	if err != nil {
		return nil, err
	}
	return &TableSchema{
		ID:         uuid.New(),
		NotebookID: notebookID,
		TableName:  tableName,
		Columns:    datatypes.JSON(encoded),
	}, nil
}

// ColumnNames decodes the stored column list.
func (s *TableSchema) ColumnNames() ([]string, error) {
	var cols []string
	if err := json.Unmarshal(s.Columns, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}
