package models

import "time"

type InvitationStatus string

const (
	InviteStatusPending InvitationStatus = "pending"
	InviteStatusJoined  InvitationStatus = "joined"
)

// MeetingInvitation is a single-use external invite. pending -> joined
// is its only transition and happens at most once.
type MeetingInvitation struct {
	ID         uint             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MeetingID  uint             `gorm:"column:meeting_id;not null;uniqueIndex:idx_meeting_email" json:"meeting_id"`
	Email      string           `gorm:"column:email;size:255;not null;uniqueIndex:idx_meeting_email" json:"email"`
	InvitedBy  uint             `gorm:"column:invited_by;not null" json:"invited_by"`
	Message    *string          `gorm:"column:message;type:text" json:"message"`
	Status     InvitationStatus `gorm:"column:status;size:20;default:'pending';not null" json:"status"`
	UniqueCode string           `gorm:"column:unique_code;size:100;unique;not null" json:"unique_code"`
	JoinedAt   *time.Time       `gorm:"column:joined_at" json:"joined_at"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MeetingInvitation) TableName() string {
	return "meeting_invitations"
}
