package models

import "time"

type ParticipantRole string

const (
	RoleHost        ParticipantRole = "host"
	RoleParticipant ParticipantRole = "participant"
)

// MeetingParticipant is one (meeting, user) enrolment. The composite
// unique index is what makes re-joining idempotent at the database even
// if two requests race past the existence check.
type MeetingParticipant struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MeetingID uint            `gorm:"column:meeting_id;not null;uniqueIndex:idx_meeting_user" json:"meeting_id"`
	UserID    uint            `gorm:"column:user_id;not null;uniqueIndex:idx_meeting_user" json:"user_id"`
	Role      ParticipantRole `gorm:"column:role;size:20;not null;default:'participant'" json:"role"`
	JoinedAt  *time.Time      `gorm:"column:joined_at" json:"joined_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	User Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MeetingParticipant) TableName() string {
	return "meeting_participants"
}
