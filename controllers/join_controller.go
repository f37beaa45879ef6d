package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/middleware"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/utils"
)

// ResolveCode looks a code up without side effects, so the join page
// can show the meeting before the user commits. Resolution order:
// shared meeting code first, then single-use invitation. Validity is
// evaluated against the clock at call time.
func ResolveCode(c *gin.Context) {
	code := utils.NormalizeCode(c.Param("code"))
	now := time.Now()

	var meeting models.Meeting
	err := config.DB.Preload("Host").Where("invitation_code = ?", code).First(&meeting).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"mode": "meeting",
			"data": meetingJSON(&meeting, now),
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not resolve code"})
		return
	}

	var invitation models.MeetingInvitation
	err = config.DB.Where("unique_code = ?", code).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invalid invitation code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not resolve code"})
		return
	}
	if invitation.Status != models.InviteStatusPending {
		c.JSON(http.StatusGone, gin.H{"message": "Invitation has already been used"})
		return
	}

	if err := config.DB.Preload("Host").First(&meeting, invitation.MeetingID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load meeting"})
		return
	}
	if meeting.StatusAt(now) == models.MeetingCompleted {
		c.JSON(http.StatusGone, gin.H{"message": "Meeting finished"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":          "invitation",
		"invited_email": invitation.Email,
		"data":          meetingJSON(&meeting, now),
	})
}

// JoinByCode enrolls the caller. A shared meeting code only admits
// while the meeting is live; a single-use invitation admits any time
// before the meeting ends and is consumed in the same transaction as
// the enrolment, so it can never be spent twice.
func JoinByCode(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)
	code := utils.NormalizeCode(c.Param("code"))
	now := time.Now()

	var meeting models.Meeting
	err := config.DB.Where("invitation_code = ?", code).First(&meeting).Error
	if err == nil {
		switch meeting.StatusAt(now) {
		case models.MeetingScheduled:
			c.JSON(http.StatusConflict, gin.H{"message": "Meeting has not started yet"})
			return
		case models.MeetingCompleted:
			c.JSON(http.StatusGone, gin.H{"message": "Meeting finished"})
			return
		}

		if err := config.DB.Transaction(func(tx *gorm.DB) error {
			return enroll(tx, &meeting, &u, now)
		}); err != nil {
			respondEnrollError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Joined meeting",
			"meeting_id":   meeting.ID,
			"channel_name": meeting.ChannelName,
			"status":       meeting.StatusAt(now),
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not resolve code"})
		return
	}

	var invitation models.MeetingInvitation
	err = config.DB.Where("unique_code = ?", code).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invalid invitation code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not resolve code"})
		return
	}
	if invitation.Status != models.InviteStatusPending {
		c.JSON(http.StatusGone, gin.H{"message": "Invitation has already been used"})
		return
	}

	if err := config.DB.First(&meeting, invitation.MeetingID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load meeting"})
		return
	}
	if meeting.StatusAt(now) == models.MeetingCompleted {
		c.JSON(http.StatusGone, gin.H{"message": "Meeting finished"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// The guarded update is the consume-once point: with the
		// status in the WHERE clause a concurrent second attempt
		// matches zero rows and the whole join rolls back.
		res := tx.Model(&models.MeetingInvitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InviteStatusPending).
			Updates(map[string]interface{}{"status": models.InviteStatusJoined, "joined_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInviteConsumed
		}
		return enroll(tx, &meeting, &u, now)
	})
	if err != nil {
		if errors.Is(err, errInviteConsumed) {
			c.JSON(http.StatusGone, gin.H{"message": "Invitation has already been used"})
			return
		}
		respondEnrollError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Joined meeting",
		"meeting_id":   meeting.ID,
		"channel_name": meeting.ChannelName,
		"status":       meeting.StatusAt(now),
	})
}

var (
	errInviteConsumed = errors.New("invitation already consumed")
	errMeetingFull    = errors.New("meeting is full")
)

// enroll inserts the participant row unless the pair already has one;
// an existing enrolment only gets its join timestamp stamped.
func enroll(tx *gorm.DB, meeting *models.Meeting, u *models.Profile, now time.Time) error {
	var existing models.MeetingParticipant
	err := tx.Where("meeting_id = ? AND user_id = ?", meeting.ID, u.ID).First(&existing).Error
	if err == nil {
		if existing.JoinedAt == nil {
			existing.JoinedAt = &now
			return tx.Save(&existing).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var count int64
	if err := tx.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ?", meeting.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(meeting.MaxParticipants) {
		return errMeetingFull
	}

	participant := models.MeetingParticipant{
		MeetingID: meeting.ID,
		UserID:    u.ID,
		Role:      models.RoleParticipant,
		JoinedAt:  &now,
	}
	return tx.Create(&participant).Error
}

func respondEnrollError(c *gin.Context, err error) {
	if errors.Is(err, errMeetingFull) {
		c.JSON(http.StatusConflict, gin.H{"message": "Meeting is full"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not join meeting"})
}
