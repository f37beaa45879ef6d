package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
)

const CtxMeeting = "meetingObj"

// CheckMeetingHost loads the meeting from the :id param, verifies the
// current user is its host and injects it into the context for the
// controller.
func CheckMeetingHost() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		user := v.(models.Profile)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid meeting ID"})
			return
		}

		var meeting models.Meeting
		if err := config.DB.First(&meeting, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Meeting not found"})
			return
		}

		if meeting.HostID != user.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Only the host can manage this meeting"})
			return
		}

		c.Set(CtxMeeting, meeting)
		c.Next()
	}
}
