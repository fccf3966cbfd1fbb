package version

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultVersion is reported when nothing has been published yet.
const DefaultVersion = "1.0.0"

// VersionRecord is one published version announcement. At most one row is active;
// rows are never deleted and only ever flip from active to inactive.
type VersionRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Version string `gorm:"column:version;type:text;not null" json:"version"`
	// Timestamp is the caller-supplied release date, distinct from CreatedAt.
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`

	IsActive    bool `gorm:"column:is_active;not null" json:"isActive"`
	ForceUpdate bool `gorm:"column:force_update;not null;default:false" json:"forceUpdate"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
}

func (VersionRecord) TableName() string { return "version_record" }

func (r *VersionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Announcement is the payload pushed to connected clients after a publish.
type Announcement struct {
	Type        string `json:"type"`
	Version     string `json:"version"`
	ForceUpdate bool   `json:"forceUpdate"`
}

const AnnouncementTypeVersionUpdate = "VERSION_UPDATE"
