package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Field represents a farm field registered for satellite monitoring.
// PolygonID references the polygon created at Agromonitoring; coordinates
// are stored as the GeoJSON ring the polygon was created from.
type Field struct {
	BaseModel
	OwnerID     string  `json:"owner_id" gorm:"not null;index"` // AuthUser id of the registering user
	Name        string  `json:"name" gorm:"not null"`
	PolygonID   string  `json:"polygon_id" gorm:"not null;unique"`
	CenterLat   float64 `json:"center_lat"`
	CenterLon   float64 `json:"center_lon"`
	AreaHa      float64 `json:"area_ha"`
	Coordinates string  `json:"coordinates" gorm:"type:text"` // JSON-encoded [lng,lat] ring

	// Cron expression for periodic NDVI snapshots, empty = no auto refresh
	RefreshSchedule string     `json:"refresh_schedule"`
	LastSnapshotAt  *time.Time `json:"last_snapshot_at"`
	NextSnapshotAt  *time.Time `json:"next_snapshot_at"`

	// Relationships
	Readings []NDVIReading `json:"readings,omitempty" gorm:"foreignKey:FieldID"`
}

// NDVIReading is one stored NDVI sample for a field
type NDVIReading struct {
	BaseModel
	FieldID    string    `json:"field_id" gorm:"not null;index"`
	MeasuredAt time.Time `json:"measured_at" gorm:"not null;index"`
	Mean       float64   `json:"mean"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Median     float64   `json:"median"`
	StdDev     float64   `json:"std_dev"`
	CloudCover int       `json:"cloud_cover"`

	// Relationships
	Field Field `json:"field,omitzero" gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE"`
}

// ChatMessage is one persisted exchange with the assistant
type ChatMessage struct {
	BaseModel
	UserID   string `json:"user_id" gorm:"not null;index"`
	Role     string `json:"role" gorm:"not null"` // user, assistant
	Language string `json:"language"`
	Content  string `json:"content" gorm:"type:text;not null"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Field{}, &NDVIReading{}, &ChatMessage{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
