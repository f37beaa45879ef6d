package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/middleware"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/utils"
)

type createMeetingReq struct {
	Title           string             `json:"title" binding:"required,min=3"`
	Description     *string            `json:"description"`
	MeetingType     models.MeetingType `json:"meeting_type" binding:"required"`
	ScheduledStart  time.Time          `json:"scheduled_start" binding:"required"`
	ScheduledEnd    time.Time          `json:"scheduled_end" binding:"required"`
	MaxParticipants int                `json:"max_participants"`
}

func validateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return errors.New("scheduled_end must be after scheduled_start")
	}
	return nil
}

// CreateMeeting validates the schedule window and capacity before
// anything is persisted, then creates the meeting together with its
// host participant row in one transaction.
func CreateMeeting(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	var req createMeetingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	if !req.MeetingType.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "meeting_type must be virtual, hybrid or in_person"})
		return
	}
	if err := validateWindow(req.ScheduledStart, req.ScheduledEnd); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if !req.ScheduledStart.After(time.Now()) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "scheduled_start must be in the future"})
		return
	}
	if req.MaxParticipants == 0 {
		req.MaxParticipants = 10
	}
	if req.MaxParticipants < models.MinParticipants || req.MaxParticipants > models.MaxParticipants {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "max_participants must be between 2 and 1000"})
		return
	}

	code, err := utils.GenerateInvitationCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate invitation code"})
		return
	}
	channel, err := utils.GenerateChannelName()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate channel name"})
		return
	}

	meeting := models.Meeting{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		MeetingType:     req.MeetingType,
		ScheduledStart:  req.ScheduledStart,
		ScheduledEnd:    req.ScheduledEnd,
		MaxParticipants: req.MaxParticipants,
		HostID:          u.ID,
		InvitationCode:  code,
		ChannelName:     channel,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meeting).Error; err != nil {
			return err
		}
		host := models.MeetingParticipant{
			MeetingID: meeting.ID,
			UserID:    u.ID,
			Role:      models.RoleHost,
		}
		return tx.Create(&host).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create meeting"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Meeting created",
		"data":    meetingJSON(&meeting, time.Now()),
	})
}

// ListMeetings returns the meetings the caller hosts or participates
// in, filtered by upcoming/past and an optional search term.
func ListMeetings(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)
	now := time.Now()

	query := config.DB.Model(&models.Meeting{}).
		Preload("Host").
		Where("host_id = ? OR id IN (?)", u.ID,
			config.DB.Model(&models.MeetingParticipant{}).Select("meeting_id").Where("user_id = ?", u.ID))

	switch c.DefaultQuery("filter", "all") {
	case "upcoming":
		query = query.Where("scheduled_end >= ?", now)
	case "past":
		query = query.Where("scheduled_end < ?", now)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", "asc"))
	orderClause := "scheduled_start asc"
	if sortOrder == "desc" {
		orderClause = "scheduled_start desc"
	}

	var meetings []models.Meeting
	if err := query.Offset(offset).Limit(limit).Order(orderClause).Find(&meetings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load meetings"})
		return
	}

	data := make([]gin.H, 0, len(meetings))
	for i := range meetings {
		data = append(data, meetingJSON(&meetings[i], now))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetMeetingDetail returns one meeting with host, participants and —
// for the host — its outstanding invitations.
func GetMeetingDetail(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid meeting ID"})
		return
	}

	var meeting models.Meeting
	err = config.DB.Preload("Host").First(&meeting, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Meeting not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load meeting"})
		return
	}

	var participants []models.MeetingParticipant
	if err := config.DB.Preload("User").
		Where("meeting_id = ?", meeting.ID).
		Order("created_at asc").
		Find(&participants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load participants"})
		return
	}

	now := time.Now()
	data := meetingJSON(&meeting, now)
	data["is_host"] = meeting.HostID == u.ID
	data["participants"] = participants

	if meeting.HostID == u.ID {
		var invitations []models.MeetingInvitation
		config.DB.Where("meeting_id = ?", meeting.ID).Order("created_at desc").Find(&invitations)
		data["invitations"] = invitations
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

type updateMeetingReq struct {
	Title           *string             `json:"title"`
	Description     *string             `json:"description"`
	MeetingType     *models.MeetingType `json:"meeting_type"`
	ScheduledStart  *time.Time          `json:"scheduled_start"`
	ScheduledEnd    *time.Time          `json:"scheduled_end"`
	MaxParticipants *int                `json:"max_participants"`
}

// UpdateMeeting edits a meeting that has not started yet. Live and
// completed meetings are immutable.
func UpdateMeeting(c *gin.Context) {
	meeting := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	now := time.Now()
	if !meeting.Editable(now) {
		c.JSON(http.StatusConflict, gin.H{"message": "A meeting that is live or finished can no longer be edited"})
		return
	}

	var req updateMeetingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload"})
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "title must have at least 3 characters"})
			return
		}
		meeting.Title = title
	}
	if req.Description != nil {
		meeting.Description = req.Description
	}
	if req.MeetingType != nil {
		if !req.MeetingType.Valid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "meeting_type must be virtual, hybrid or in_person"})
			return
		}
		meeting.MeetingType = *req.MeetingType
	}
	if req.ScheduledStart != nil {
		meeting.ScheduledStart = *req.ScheduledStart
	}
	if req.ScheduledEnd != nil {
		meeting.ScheduledEnd = *req.ScheduledEnd
	}
	if err := validateWindow(meeting.ScheduledStart, meeting.ScheduledEnd); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < models.MinParticipants || *req.MaxParticipants > models.MaxParticipants {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "max_participants must be between 2 and 1000"})
			return
		}
		meeting.MaxParticipants = *req.MaxParticipants
	}

	if err := config.DB.Save(&meeting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Meeting updated",
		"data":    meetingJSON(&meeting, now),
	})
}

// DeleteMeeting removes the meeting with its participants and
// invitations.
func DeleteMeeting(c *gin.Context) {
	meeting := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&models.MeetingParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&models.MeetingInvitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meeting).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Meeting deleted"})
}

// meetingJSON is the one serialization of a meeting, so the derived
// status shown anywhere always comes from the same computation.
func meetingJSON(m *models.Meeting, now time.Time) gin.H {
	data := gin.H{
		"id":               m.ID,
		"title":            m.Title,
		"description":      m.Description,
		"meeting_type":     m.MeetingType,
		"scheduled_start":  m.ScheduledStart,
		"scheduled_end":    m.ScheduledEnd,
		"max_participants": m.MaxParticipants,
		"host_id":          m.HostID,
		"invitation_code":  m.InvitationCode,
		"channel_name":     m.ChannelName,
		"created_at":       m.CreatedAt,
		"status":           m.StatusAt(now),
	}
	if m.Host.ID != 0 {
		data["host"] = gin.H{
			"id":        m.Host.ID,
			"email":     m.Host.Email,
			"full_name": m.Host.FullName,
		}
	}
	return data
}
