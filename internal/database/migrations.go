package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/models"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Team{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.TaskSubmission{},
		&models.DailyWorkLog{},
		&models.WorkAttachment{},
	}
}

// Migrate creates or updates tables. Unique indexes on users.email,
// teams.manager_code, task_submissions(task_id, submitted_by) and
// daily_work_logs(user_id, work_date) come from the model tags.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := ensureIndexes(db, log); err != nil {
		return err
	}

	log.Info("database migrations completed")
	return nil
}

// ensureIndexes adds the secondary indexes used by the list queries.
func ensureIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		{&models.Task{}, "tasks", "idx_tasks_assigned_by_created_at", "assigned_by, created_at"},
		{&models.DailyWorkLog{}, "daily_work_logs", "idx_daily_work_logs_work_date", "work_date"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
