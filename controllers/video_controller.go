package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/middleware"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/video"
)

// VideoManager owns the active sessions. Set at startup.
var VideoManager *video.Manager

// loadMeetingForParticipant resolves :id and checks the caller is
// enrolled (the host counts). Video endpoints are participant-only.
func loadMeetingForParticipant(c *gin.Context) (models.Meeting, models.Profile, bool) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid meeting ID"})
		return models.Meeting{}, u, false
	}

	var meeting models.Meeting
	if err := config.DB.First(&meeting, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Meeting not found"})
		return meeting, u, false
	}

	if meeting.HostID != u.ID {
		var count int64
		config.DB.Model(&models.MeetingParticipant{}).
			Where("meeting_id = ? AND user_id = ?", meeting.ID, u.ID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusForbidden, gin.H{"message": "You are not a participant of this meeting"})
			return meeting, u, false
		}
	}

	return meeting, u, true
}

// GetVideoConfig hands the client what it needs to render the room:
// channel name, vendor app id and whether video is configured at all.
func GetVideoConfig(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}

	agora := config.Agora()
	c.JSON(http.StatusOK, gin.H{
		"configured":   agora.IsConfigured(),
		"app_id":       agora.AppID,
		"channel_name": meeting.ChannelName,
		"user_name":    u.DisplayName(),
		"status":       meeting.StatusAt(time.Now()),
	})
}

// JoinVideoSession starts (or re-enters) the caller's session for a
// live meeting. A duplicate call while joining or joined is a no-op at
// the session level, so hammering the button cannot double-publish.
func JoinVideoSession(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}

	now := time.Now()
	if meeting.StatusAt(now) != models.MeetingLive {
		c.JSON(http.StatusConflict, gin.H{"message": "Meeting is not live"})
		return
	}

	if VideoManager == nil || !config.Agora().IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Video is not configured"})
		return
	}

	session := VideoManager.GetOrCreate(meeting.ID, u.ID, meeting.ChannelName, u.DisplayName())
	if err := session.Join(c.Request.Context()); err != nil {
		// The session cleans up after itself; the caller just gets the
		// message and stays on the pre-join screen.
		c.JSON(http.StatusBadGateway, gin.H{"message": "Could not join the video session", "error": err.Error()})
		return
	}

	config.DB.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ? AND user_id = ? AND joined_at IS NULL", meeting.ID, u.ID).
		Update("joined_at", now)

	c.JSON(http.StatusOK, gin.H{
		"message": "Joined video session",
		"state":   session.State(),
	})
}

// LeaveVideoSession tears the session down. Safe to call without one.
func LeaveVideoSession(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}

	if VideoManager != nil {
		if session, exists := VideoManager.Get(meeting.ID, u.ID); exists {
			session.Leave(c.Request.Context())
			VideoManager.Remove(meeting.ID, u.ID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left video session"})
}

func activeSession(c *gin.Context, meetingID, userID uint) (*video.Session, bool) {
	if VideoManager == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "No active video session"})
		return nil, false
	}
	session, exists := VideoManager.Get(meetingID, userID)
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"message": "No active video session"})
		return nil, false
	}
	return session, true
}

// ToggleAudio flips the microphone of the caller's session.
func ToggleAudio(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}
	session, ok := activeSession(c, meeting.ID, u.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_enabled": session.ToggleAudio()})
}

// ToggleVideo flips the camera of the caller's session.
func ToggleVideo(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}
	session, ok := activeSession(c, meeting.ID, u.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_enabled": session.ToggleVideo()})
}

type sendMessageReq struct {
	Text string `json:"text" binding:"required"`
}

// SendVideoChat puts a line on the data channel. A failed send is a
// warning for the caller, not an error state.
func SendVideoChat(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}
	session, ok := activeSession(c, meeting.ID, u.ID)
	if !ok {
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	sent := session.SendChat(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// GetVideoMessages returns the session's chat log.
func GetVideoMessages(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}
	session, ok := activeSession(c, meeting.ID, u.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session.Messages()})
}

// GetVideoState reports the session's connection state, toggles and
// remote participants.
func GetVideoState(c *gin.Context) {
	meeting, u, ok := loadMeetingForParticipant(c)
	if !ok {
		return
	}

	if VideoManager == nil {
		c.JSON(http.StatusOK, gin.H{"state": video.StateIdle, "connected": false})
		return
	}
	session, exists := VideoManager.Get(meeting.ID, u.ID)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"state": video.StateIdle, "connected": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":         session.State(),
		"connected":     session.Connected(),
		"audio_enabled": session.AudioEnabled(),
		"video_enabled": session.VideoEnabled(),
		"remote_users":  session.RemoteUsers(),
	})
}
