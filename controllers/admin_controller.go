package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
)

// ListPendingUsers returns the approval queue, newest first.
func ListPendingUsers(c *gin.Context) {
	var pending []models.Profile
	if err := config.DB.
		Where("status = ?", models.StatusPending).
		Order("created_at desc").
		Find(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load pending users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pending})
}

// ApproveUser transitions a pending profile to approved and then tries
// to confirm the email through the backend's stored procedure. The
// procedure may not exist in every environment; its failure is logged
// and never blocks the approval.
func ApproveUser(c *gin.Context) {
	transitionUser(c, models.StatusApproved)
}

// RejectUser transitions a pending profile to rejected.
func RejectUser(c *gin.Context) {
	transitionUser(c, models.StatusRejected)
}

func transitionUser(c *gin.Context, to models.ProfileStatus) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	var user models.Profile
	if err := config.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	if user.Status != models.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"message": "User has already been reviewed"})
		return
	}

	user.Status = to
	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update user"})
		return
	}

	if to == models.StatusApproved {
		if err := config.DB.Exec("SELECT confirm_user_email(?)", user.ID).Error; err != nil {
			log.Printf("confirm_user_email for user %d: %v", user.ID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User " + string(to),
		"user":    user,
	})
}
