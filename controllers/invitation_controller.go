package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/mail"
	"github.com/pablofelipe01/sirius-meets/middleware"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/utils"
)

// Mailer sends external invitations. Set at startup; a disabled mailer
// logs the link instead of sending.
var Mailer *mail.Service

// ListUsers is the internal-invite directory: every approved account
// except the caller, optionally filtered by name or email.
func ListUsers(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	query := config.DB.Model(&models.Profile{}).
		Where("status = ?", models.StatusApproved).
		Where("id <> ?", u.ID)

	if search := strings.ToLower(c.Query("search")); search != "" {
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var users []models.Profile
	if err := query.Order("full_name asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load users"})
		return
	}

	data := make([]gin.H, 0, len(users))
	for i := range users {
		data = append(data, gin.H{
			"id":        users[i].ID,
			"email":     users[i].Email,
			"full_name": users[i].FullName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

type inviteInternalReq struct {
	UserID uint `json:"user_id" binding:"required"`
}

// InviteInternal enrolls an approved colleague directly as a
// participant. joined_at stays empty until they actually enter.
func InviteInternal(c *gin.Context) {
	meeting := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req inviteInternalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var target models.Profile
	if err := config.DB.First(&target, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if !target.IsApproved() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User is not approved"})
		return
	}

	var count int64
	config.DB.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ? AND user_id = ?", meeting.ID, target.ID).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "User is already in this meeting"})
		return
	}

	participant := models.MeetingParticipant{
		MeetingID: meeting.ID,
		UserID:    target.ID,
		Role:      models.RoleParticipant,
	}
	if err := config.DB.Create(&participant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not add participant"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": target.DisplayName() + " added to the meeting",
		"data":    participant,
	})
}

type inviteExternalReq struct {
	Email   string  `json:"email" binding:"required,email"`
	Message *string `json:"message"`
}

// InviteExternal creates a single-use invitation for an outside email
// and mails the personal join link best-effort. Corporate addresses
// are turned away: colleagues are invited through the internal flow.
func InviteExternal(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)
	meeting := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req inviteExternalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.HasSuffix(email, config.AllowedEmailDomain()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Internal users are invited from the team tab"})
		return
	}

	var count int64
	config.DB.Model(&models.MeetingInvitation{}).
		Where("meeting_id = ? AND email = ?", meeting.ID, email).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "An invitation for this email already exists"})
		return
	}

	code, err := utils.GenerateUniqueInviteCode(meeting.InvitationCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate invitation code"})
		return
	}

	invitation := models.MeetingInvitation{
		MeetingID:  meeting.ID,
		Email:      email,
		InvitedBy:  u.ID,
		Message:    req.Message,
		Status:     models.InviteStatusPending,
		UniqueCode: code,
	}
	if err := config.DB.Create(&invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create invitation"})
		return
	}

	joinLink := config.FrontendBaseURL() + "/join/" + code

	if Mailer != nil {
		message := ""
		if req.Message != nil {
			message = *req.Message
		}
		if err := Mailer.SendInvitation(c.Request.Context(), email, meeting.Title, u.DisplayName(), joinLink, message); err != nil {
			log.Printf("invitation email to %s: %v", email, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Invitation created for " + email,
		"data":      invitation,
		"join_link": joinLink,
	})
}
