package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa/shopsync-backend/pkg/enums"
)

// User is the profile record owned by the auth collaborator; the core reads
// it only for identity, role, and the name/email snapshots copied onto sales
// records.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Email     string           `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.MemberRole `gorm:"column:role;not null;default:'customer'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
