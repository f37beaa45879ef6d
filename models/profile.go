package models

import "time"

type ProfileStatus string

const (
	StatusPending  ProfileStatus = "pending"
	StatusApproved ProfileStatus = "approved"
	StatusRejected ProfileStatus = "rejected"
)

func (s ProfileStatus) String() string {
	return string(s)
}

// Profile is one identity: credentials plus the approval state that
// gates everything else. Status is mutated only by an admin; the name
// and avatar only by the owner.
type Profile struct {
	ID           uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email        string        `gorm:"column:email;size:255;unique;not null" json:"email"`
	FullName     *string       `gorm:"column:full_name;size:100" json:"full_name"`
	PasswordHash string        `gorm:"column:password_hash;size:255" json:"-"`
	Status       ProfileStatus `gorm:"column:status;size:20;default:'pending';not null" json:"status"`
	IsSuperAdmin bool          `gorm:"column:is_super_admin;not null;default:false" json:"is_super_admin"`
	AvatarURL    *string       `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Meetings []Meeting `gorm:"foreignKey:HostID" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) IsApproved() bool {
	return p.Status == StatusApproved
}

// DisplayName is what other participants see: the full name when set,
// the email otherwise.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}
