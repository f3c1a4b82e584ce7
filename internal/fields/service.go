// Package fields manages farm fields registered for satellite monitoring:
// polygon registration at Agromonitoring, local persistence, and snapshot
// job scheduling.
package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/agro"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/models"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/tasks"
)

// Service coordinates field registration and monitoring
type Service struct {
	db          *gorm.DB
	agroClient  *agro.Client
	asynqClient *asynq.Client
	logger      zerolog.Logger
}

// NewService creates a new fields service
func NewService(db *gorm.DB, agroClient *agro.Client, asynqClient *asynq.Client, logger zerolog.Logger) *Service {
	return &Service{
		db:          db,
		agroClient:  agroClient,
		asynqClient: asynqClient,
		logger:      logger.With().Str("component", "fields").Logger(),
	}
}

// Register creates the remote polygon, persists the field, and enqueues an
// initial NDVI snapshot. refreshSchedule is an optional standard 5-field
// cron expression for periodic snapshots.
func (s *Service) Register(ctx context.Context, ownerID, name string, coordinates [][2]float64, refreshSchedule string) (*models.Field, error) {
	var nextSnapshot *time.Time
	if refreshSchedule != "" {
		schedule, err := cron.ParseStandard(refreshSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid refresh schedule: %w", err)
		}
		next := schedule.Next(time.Now())
		nextSnapshot = &next
	}

	polygon, err := s.agroClient.CreatePolygon(ctx, name, coordinates)
	if err != nil {
		return nil, fmt.Errorf("failed to register polygon: %w", err)
	}

	coordsJSON, err := json.Marshal(coordinates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode coordinates: %w", err)
	}

	field := models.Field{
		OwnerID:         ownerID,
		Name:            name,
		PolygonID:       polygon.ID,
		CenterLat:       polygon.Center[1],
		CenterLon:       polygon.Center[0],
		AreaHa:          polygon.Area,
		Coordinates:     string(coordsJSON),
		RefreshSchedule: refreshSchedule,
		NextSnapshotAt:  nextSnapshot,
	}
	if field.CenterLat == 0 && field.CenterLon == 0 {
		field.CenterLon, field.CenterLat = centroid(coordinates)
	}

	if err := s.db.WithContext(ctx).Create(&field).Error; err != nil {
		return nil, fmt.Errorf("failed to persist field: %w", err)
	}

	s.logger.Info().
		Str("field_id", field.ID).
		Str("polygon_id", field.PolygonID).
		Str("owner_id", ownerID).
		Msg("Field registered")

	// Kick off the first snapshot right away so the dashboard has data
	if err := s.enqueueSnapshot(field.ID); err != nil {
		s.logger.Warn().Err(err).Str("field_id", field.ID).Msg("Failed to enqueue initial snapshot")
	}

	return &field, nil
}

// List returns all fields owned by the given user
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Field, error) {
	var fieldList []models.Field
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&fieldList).Error; err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return fieldList, nil
}

// Get returns one field owned by the given user
func (s *Service) Get(ctx context.Context, ownerID, fieldID string) (*models.Field, error) {
	var field models.Field
	if err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", fieldID, ownerID).
		First(&field).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// Delete removes a field and its readings
func (s *Service) Delete(ctx context.Context, ownerID, fieldID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", fieldID, ownerID).
		Delete(&models.Field{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete field: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.logger.Info().Str("field_id", fieldID).Msg("Field deleted")
	return nil
}

// Readings returns stored NDVI readings for a field, newest first
func (s *Service) Readings(ctx context.Context, ownerID, fieldID string, limit int) ([]models.NDVIReading, error) {
	if _, err := s.Get(ctx, ownerID, fieldID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("measured_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var readings []models.NDVIReading
	if err := query.Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

func (s *Service) enqueueSnapshot(fieldID string) error {
	task, err := tasks.NewNDVISnapshotTask(fieldID)
	if err != nil {
		return err
	}
	if _, err := s.asynqClient.Enqueue(task, asynq.Timeout(10*time.Minute)); err != nil {
		return fmt.Errorf("failed to enqueue snapshot task: %w", err)
	}
	return nil
}

// centroid averages the ring coordinates; good enough as a weather lookup
// point when the API does not return a center.
func centroid(coordinates [][2]float64) (lon, lat float64) {
	if len(coordinates) == 0 {
		return 0, 0
	}
	for _, c := range coordinates {
		lon += c[0]
		lat += c[1]
	}
	n := float64(len(coordinates))
	return lon / n, lat / n
}
