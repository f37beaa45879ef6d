package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
	"github.com/pablofelipe01/sirius-meets/routes"
	"github.com/pablofelipe01/sirius-meets/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "controllers-test-secret")
	os.Exit(m.Run())
}

var testIP atomic.Int32

// setupTest gives every test its own in-memory database and router,
// plus a dedicated client IP so the per-IP rate limiters never bleed
// between tests.
func setupTest(t *testing.T) (*gin.Engine, string) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared in-memory database lives as long as one connection holds
	// it open; a single connection also serializes the test's queries.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	config.DB = db

	r := gin.New()
	routes.SetupRoutes(r)

	ip := fmt.Sprintf("198.51.100.%d", testIP.Add(1))
	return r, ip
}

func createUser(t *testing.T, email string, status models.ProfileStatus, superAdmin bool) (models.Profile, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	name := strings.Split(email, "@")[0]
	profile := models.Profile{
		Email:        email,
		FullName:     &name,
		PasswordHash: hash,
		Status:       status,
		IsSuperAdmin: superAdmin,
	}
	require.NoError(t, config.DB.Create(&profile).Error)

	token, err := utils.GenerateToken(fmt.Sprint(profile.ID), profile.Email)
	require.NoError(t, err)
	return profile, token
}

func createMeeting(t *testing.T, host models.Profile, start, end time.Time, maxParticipants int) models.Meeting {
	t.Helper()

	code, err := utils.GenerateInvitationCode()
	require.NoError(t, err)
	channel, err := utils.GenerateChannelName()
	require.NoError(t, err)

	meeting := models.Meeting{
		Title:           "Quarterly sync",
		MeetingType:     models.MeetingVirtual,
		ScheduledStart:  start,
		ScheduledEnd:    end,
		MaxParticipants: maxParticipants,
		HostID:          host.ID,
		InvitationCode:  code,
		ChannelName:     channel,
	}
	require.NoError(t, config.DB.Create(&meeting).Error)
	require.NoError(t, config.DB.Create(&models.MeetingParticipant{
		MeetingID: meeting.ID,
		UserID:    host.ID,
		Role:      models.RoleHost,
	}).Error)
	return meeting
}

func liveMeeting(t *testing.T, host models.Profile) models.Meeting {
	t.Helper()
	now := time.Now()
	return createMeeting(t, host, now.Add(-30*time.Minute), now.Add(30*time.Minute), 10)
}

func doJSON(t *testing.T, r *gin.Engine, ip, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = ip + ":52342"
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	r, ip := setupTest(t)

	w := doJSON(t, r, ip, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "ok", body["db"])
}
