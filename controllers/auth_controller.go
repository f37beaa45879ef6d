package controllers

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/middleware"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/utils"
)

type registerReq struct {
	FullName string `json:"full_name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register creates a pending account. The corporate-domain check runs
// before anything touches the database.
func Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	domain := config.AllowedEmailDomain()
	if !strings.HasSuffix(email, domain) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only " + domain + " emails are allowed"})
		return
	}

	var count int64
	config.DB.Model(&models.Profile{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash password"})
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	profile := models.Profile{
		Email:        email,
		FullName:     &fullName,
		PasswordHash: hash,
		Status:       models.StatusPending,
	}

	if err := config.DB.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":     profile,
		"redirect": middleware.RouteFor(&profile),
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// JoinCode carries the invitation a user followed to the login
	// page, so an approved account lands straight on the join flow.
	JoinCode string `json:"join_code"`
}

func Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var profile models.Profile
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := config.DB.Where("email = ?", email).First(&profile).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	if !utils.CheckPassword(profile.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	issueSession(c, &profile, req.JoinCode)
}

type googleLoginReq struct {
	IDToken  string `json:"id_token" binding:"required"`
	JoinCode string `json:"join_code"`
}

// GoogleLogin verifies a Google ID token and signs the user in,
// provisioning a pending profile on first sight. The same corporate
// domain restriction applies.
func GoogleLogin(c *gin.Context) {
	var req googleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	payload, err := idtoken.Validate(c.Request.Context(), req.IDToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Google token"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	email = strings.ToLower(email)
	domain := config.AllowedEmailDomain()
	if email == "" || !strings.HasSuffix(email, domain) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only " + domain + " emails are allowed"})
		return
	}

	var profile models.Profile
	err = config.DB.Where("email = ?", email).First(&profile).Error
	if err != nil {
		name, _ := payload.Claims["name"].(string)
		profile = models.Profile{
			Email:  email,
			Status: models.StatusPending,
		}
		if name != "" {
			profile.FullName = &name
		}
		if err := config.DB.Create(&profile).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create account"})
			return
		}
	}

	issueSession(c, &profile, req.JoinCode)
}

func issueSession(c *gin.Context, profile *models.Profile, joinCode string) {
	token, err := utils.GenerateToken(strconv.FormatUint(uint64(profile.ID), 10), profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}

	redirect := middleware.RouteFor(profile)
	if joinCode != "" && profile.IsApproved() {
		redirect = "/join/" + utils.NormalizeCode(joinCode)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"user":     profile,
		"redirect": redirect,
	})
}

// Me returns the current profile with its route, re-derived from the
// freshly loaded status on every call.
func Me(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)
	c.JSON(http.StatusOK, gin.H{
		"user":     u,
		"redirect": middleware.RouteFor(&u),
	})
}

type updateMeReq struct {
	FullName string `json:"full_name" binding:"required,min=2"`
}

// UpdateMe lets an identity change its own display name; nothing else
// is owner-mutable.
func UpdateMe(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	var req updateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	u.FullName = &fullName
	if err := config.DB.Save(&u).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

// ApprovalWatcher drives WaitApproval's re-checks. The 10s interval is
// the cadence the pending screen used to poll at; tests swap the clock.
var ApprovalWatcher = utils.NewWatcher(10 * time.Second)

// WaitApproval long-polls until the account's status leaves pending or
// the timeout lapses. Status is re-read from the database on every
// tick, never cached.
func WaitApproval(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.Profile)

	timeout := 60 * time.Second
	if raw := c.Query("timeout"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 || secs > 120 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timeout"})
			return
		}
		timeout = time.Duration(secs) * time.Second
	}

	var latest models.Profile
	changed, err := ApprovalWatcher.Wait(c.Request.Context(), timeout, func() (bool, error) {
		if err := config.DB.First(&latest, u.ID).Error; err != nil {
			return false, err
		}
		return latest.Status != models.StatusPending, nil
	})
	if err != nil {
		log.Printf("approval wait for user %d: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not check status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changed":  changed,
		"user":     latest,
		"redirect": middleware.RouteFor(&latest),
	})
}
