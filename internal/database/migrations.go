package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/models"
)

// compositeIndexes back the list queries: own tasks newest first and the public feed.
var compositeIndexes = []struct {
	model   interface{}
	table   string
	name    string
	columns string
}{
	{&models.Task{}, "tasks", "idx_tasks_owner_created", "owner_id, created_at"},
	{&models.Task{}, "tasks", "idx_tasks_visibility_created", "visibility, created_at"},
	{&models.Task{}, "tasks", "idx_tasks_owner_category", "owner_id, category"},
}

// EnsureIndexes creates the composite indexes that struct tags cannot express in order.
func EnsureIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}
