package tabular

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service materializes uploaded frames into derived data tables and serves
// reads against them. Ingestions targeting the same sanitized table name are
// serialized with a per-name mutex so concurrent uploads cannot interleave
// their rows.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) tableLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Materialize replaces the derived data table for tableName with the frame's
// contents: drop, create with all-text columns, bulk insert, all inside one
// transaction. tableName and frame.Columns must already be sanitized.
func (s *Service) Materialize(ctx context.Context, tableName string, frame *Frame) error {
	if len(frame.Columns) == 0 {
		return fmt.Errorf("materialize %q: no columns", tableName)
	}

	lock := s.tableLock(tableName)
	lock.Lock()
	defer lock.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(tableName))).Error; err != nil {
			return fmt.Errorf("drop table: %w", err)
		}

		defs := make([]string, len(frame.Columns))
		for i, col := range frame.Columns {
			defs[i] = quoteIdent(col) + " text"
		}
		create := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(tableName), strings.Join(defs, ", "))
		if err := tx.Exec(create).Error; err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return s.insertRows(tx, tableName, frame)
	})
	if err != nil {
		return fmt.Errorf("materialize %q: %w", tableName, err)
	}

	s.logger.Info("Materialized derived data table",
		zap.String("table", tableName),
		zap.Int("columns", len(frame.Columns)),
		zap.Int("rows", len(frame.Rows)))
	return nil
}

func (s *Service) insertRows(tx *gorm.DB, tableName string, frame *Frame) error {
	if len(frame.Rows) == 0 {
		return nil
	}

	quoted := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		quoted[i] = quoteIdent(col)
	}
	prefix := fmt.Sprintf(`INSERT INTO %s (%s) VALUES `, quoteIdent(tableName), strings.Join(quoted, ", "))
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(frame.Columns)), ",") + ")"

	// Keep each statement under the engines' bind-variable limits.
	chunk := 1000 / len(frame.Columns)
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < len(frame.Rows); start += chunk {
		end := start + chunk
		if end > len(frame.Rows) {
			end = len(frame.Rows)
		}
		batch := frame.Rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(frame.Columns))
		for i, row := range batch {
			placeholders[i] = placeholder
			for _, cell := range row {
				args = append(args, cell)
			}
		}

		if err := tx.Exec(prefix+strings.Join(placeholders, ", "), args...).Error; err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

// Drop removes the derived data table. Dropping a table that does not exist
// is not an error.
func (s *Service) Drop(ctx context.Context, tableName string) error {
	lock := s.tableLock(tableName)
	lock.Lock()
	defer lock.Unlock()

	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(tableName))).Error; err != nil {
		return fmt.Errorf("drop %q: %w", tableName, err)
	}
	return nil
}

// quoteIdent double-quotes an already-sanitized identifier. Sanitized names
// cannot contain quotes, so escaping is not needed.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
