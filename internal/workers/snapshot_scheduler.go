package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/models"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/tasks"
)

// StartSnapshotScheduler runs a periodic check (every minute) for fields
// whose refresh schedule is due and enqueues NDVI snapshot tasks for them.
func StartSnapshotScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueSnapshots(client, db, logger)

	for range ticker.C {
		checkAndEnqueueSnapshots(client, db, logger)
	}
}

func checkAndEnqueueSnapshots(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	var due []models.Field
	err := db.
		Where("refresh_schedule <> ''").
		Where("next_snapshot_at IS NULL OR next_snapshot_at <= ?", time.Now()).
		Find(&due).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query fields for snapshot refresh")
		return
	}

	for _, field := range due {
		logger.Info().
			Str("field_id", field.ID).
			Str("refresh_schedule", field.RefreshSchedule).
			Msg("Field snapshot due")

		task, err := tasks.NewNDVISnapshotTask(field.ID)
		if err != nil {
			logger.Error().Err(err).Str("field_id", field.ID).Msg("Failed to create snapshot task")
			continue
		}

		if _, err := client.Enqueue(task, asynq.Timeout(10*time.Minute)); err != nil {
			logger.Error().Err(err).Str("field_id", field.ID).Msg("Failed to enqueue snapshot task")
			continue
		}

		// Advance next_snapshot_at immediately so the scheduler does not
		// re-enqueue the same field every minute.
		next := calculateNextSnapshotTime(field.RefreshSchedule, time.Now())
		if next != nil {
			if err := db.Model(&field).Update("next_snapshot_at", next).Error; err != nil {
				logger.Error().Err(err).Str("field_id", field.ID).Msg("Failed to update next_snapshot_at")
			}
		}
	}
}

// calculateNextSnapshotTime calculates the next snapshot time from a cron
// schedule (standard 5-field format).
func calculateNextSnapshotTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
