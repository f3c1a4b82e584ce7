package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/agro"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/models"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/tasks"
)

// ndviLookback is how far back a snapshot searches for NDVI samples.
// Sentinel revisit time is ~5 days; a month gives a usable series even with
// heavy cloud cover.
const ndviLookback = 30 * 24 * time.Hour

// HandleNDVISnapshot fetches NDVI history for a field and stores any samples
// not yet recorded.
func HandleNDVISnapshot(ctx context.Context, t *asynq.Task, db *gorm.DB, agroClient *agro.Client, logger zerolog.Logger) error {
	payload, err := tasks.ParseFieldTaskPayload(t)
	if err != nil {
		return err
	}

	var field models.Field
	if err := models.FindByID(db, payload.FieldID, &field); err != nil {
		if err == gorm.ErrRecordNotFound {
			// Field was deleted after the task was enqueued; nothing to do
			logger.Debug().Str("field_id", payload.FieldID).Msg("Field gone, skipping snapshot")
			return nil
		}
		return fmt.Errorf("failed to load field: %w", err)
	}

	end := time.Now()
	start := end.Add(-ndviLookback)

	stats, err := agroClient.NDVIHistory(ctx, field.PolygonID, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch NDVI history for field %s: %w", field.ID, err)
	}

	stored := 0
	for _, sample := range stats {
		measuredAt := time.Unix(sample.DT, 0).UTC()

		// Skip samples already recorded for this timestamp
		var count int64
		if err := db.Model(&models.NDVIReading{}).
			Where("field_id = ? AND measured_at = ?", field.ID, measuredAt).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing reading: %w", err)
		}
		if count > 0 {
			continue
		}

		reading := models.NDVIReading{
			FieldID:    field.ID,
			MeasuredAt: measuredAt,
			Mean:       sample.Data.Mean,
			Min:        sample.Data.Min,
			Max:        sample.Data.Max,
			Median:     sample.Data.P50,
			StdDev:     sample.Data.Std,
			CloudCover: sample.CL,
		}
		if err := db.Create(&reading).Error; err != nil {
			return fmt.Errorf("failed to store reading: %w", err)
		}
		stored++
	}

	now := time.Now()
	if err := db.Model(&field).Update("last_snapshot_at", &now).Error; err != nil {
		logger.Warn().Err(err).Str("field_id", field.ID).Msg("Failed to update last_snapshot_at")
	}

	logger.Info().
		Str("field_id", field.ID).
		Int("samples", len(stats)).
		Int("stored", stored).
		Msg("NDVI snapshot complete")

	return nil
}

// HandleWeatherSnapshot logs current weather at a field's center. Weather is
// not persisted; the snapshot exists to warm logs/dashboards and to verify
// the polygon is still serviceable.
func HandleWeatherSnapshot(ctx context.Context, t *asynq.Task, db *gorm.DB, agroClient *agro.Client, logger zerolog.Logger) error {
	payload, err := tasks.ParseFieldTaskPayload(t)
	if err != nil {
		return err
	}

	var field models.Field
	if err := models.FindByID(db, payload.FieldID, &field); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("failed to load field: %w", err)
	}

	weather, err := agroClient.CurrentWeather(ctx, field.CenterLat, field.CenterLon)
	if err != nil {
		return fmt.Errorf("failed to fetch weather for field %s: %w", field.ID, err)
	}

	description := ""
	if len(weather.Weather) > 0 {
		description = weather.Weather[0].Description
	}

	logger.Info().
		Str("field_id", field.ID).
		Float64("temp_c", weather.TempCelsius()).
		Float64("humidity", weather.Main.Humidity).
		Str("conditions", description).
		Msg("Weather snapshot")

	return nil
}
