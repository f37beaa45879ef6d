package models

import "time"

type MeetingType string

const (
	MeetingVirtual  MeetingType = "virtual"
	MeetingHybrid   MeetingType = "hybrid"
	MeetingInPerson MeetingType = "in_person"
)

func (t MeetingType) Valid() bool {
	switch t {
	case MeetingVirtual, MeetingHybrid, MeetingInPerson:
		return true
	}
	return false
}

// MeetingStatus is derived from the schedule window, never stored.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingLive      MeetingStatus = "live"
	MeetingCompleted MeetingStatus = "completed"
)

const (
	MinParticipants = 2
	MaxParticipants = 1000
)

type Meeting struct {
	ID              uint        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title           string      `gorm:"column:title;size:200;not null" json:"title"`
	Description     *string     `gorm:"column:description;type:text" json:"description"`
	MeetingType     MeetingType `gorm:"column:meeting_type;size:20;not null" json:"meeting_type"`
	ScheduledStart  time.Time   `gorm:"column:scheduled_start;not null" json:"scheduled_start"`
	ScheduledEnd    time.Time   `gorm:"column:scheduled_end;not null" json:"scheduled_end"`
	MaxParticipants int         `gorm:"column:max_participants;not null;default:10" json:"max_participants"`
	HostID          uint        `gorm:"column:host_id;not null" json:"host_id"`
	InvitationCode  string      `gorm:"column:invitation_code;size:20;unique;not null" json:"invitation_code"`
	ChannelName     string      `gorm:"column:channel_name;size:100;unique;not null" json:"channel_name"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Host         Profile              `gorm:"foreignKey:HostID" json:"host,omitempty"`
	Participants []MeetingParticipant `gorm:"foreignKey:MeetingID" json:"-"`
	Invitations  []MeetingInvitation  `gorm:"foreignKey:MeetingID" json:"-"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// StatusAt derives the meeting status from the schedule window. Both
// boundary instants count as live. Every view goes through this one
// function so the join gate and the displayed status can never drift.
func (m *Meeting) StatusAt(now time.Time) MeetingStatus {
	if now.Before(m.ScheduledStart) {
		return MeetingScheduled
	}
	if now.After(m.ScheduledEnd) {
		return MeetingCompleted
	}
	return MeetingLive
}

// Editable reports whether the host may still change the schedule:
// only meetings that have not started.
func (m *Meeting) Editable(now time.Time) bool {
	return m.StatusAt(now) == MeetingScheduled
}
