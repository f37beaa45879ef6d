package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
)

func TestCreateMeeting(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)

	start := time.Now().Add(time.Hour).UTC()
	w := doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":           "Quarterly sync",
		"meeting_type":    "virtual",
		"scheduled_start": start.Format(time.RFC3339),
		"scheduled_end":   start.Add(time.Hour).Format(time.RFC3339),
	}, token)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "scheduled", data["status"])
	assert.Len(t, data["invitation_code"], 6)
	assert.Regexp(t, `^meeting_\d+_[a-z0-9]{6}$`, data["channel_name"])
	assert.EqualValues(t, 10, data["max_participants"])

	// The host is enrolled in the same transaction.
	var participant models.MeetingParticipant
	require.NoError(t, config.DB.
		Where("meeting_id = ? AND user_id = ?", data["id"], host.ID).
		First(&participant).Error)
	assert.Equal(t, models.RoleHost, participant.Role)
	assert.Nil(t, participant.JoinedAt)
}

func TestCreateMeetingRejectsInvertedWindow(t *testing.T) {
	r, ip := setupTest(t)
	_, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)

	start := time.Now().Add(2 * time.Hour).UTC()
	w := doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":           "Backwards",
		"meeting_type":    "virtual",
		"scheduled_start": start.Format(time.RFC3339),
		"scheduled_end":   start.Add(-time.Hour).Format(time.RFC3339),
	}, token)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var count int64
	config.DB.Model(&models.Meeting{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateMeetingRejectsPastStart(t *testing.T) {
	r, ip := setupTest(t)
	_, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)

	start := time.Now().Add(-time.Hour).UTC()
	w := doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":           "Yesterday",
		"meeting_type":    "virtual",
		"scheduled_start": start.Format(time.RFC3339),
		"scheduled_end":   start.Add(2 * time.Hour).Format(time.RFC3339),
	}, token)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateMeetingValidatesTypeAndCapacity(t *testing.T) {
	r, ip := setupTest(t)
	_, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	start := time.Now().Add(time.Hour).UTC()

	w := doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":           "Webinar",
		"meeting_type":    "webinar",
		"scheduled_start": start.Format(time.RFC3339),
		"scheduled_end":   start.Add(time.Hour).Format(time.RFC3339),
	}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":            "Tiny",
		"meeting_type":     "virtual",
		"scheduled_start":  start.Format(time.RFC3339),
		"scheduled_end":    start.Add(time.Hour).Format(time.RFC3339),
		"max_participants": 1,
	}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateMeetingRequiresApprovedAccount(t *testing.T) {
	r, ip := setupTest(t)
	_, token := createUser(t, "pending@siriusregenerative.com", models.StatusPending, false)

	w := doJSON(t, r, ip, http.MethodPost, "/api/meetings", map[string]any{
		"title":        "Sneaky",
		"meeting_type": "virtual",
	}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListMeetingsFiltersAndSearch(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	now := time.Now()

	past := createMeeting(t, host, now.Add(-3*time.Hour), now.Add(-2*time.Hour), 10)
	require.NoError(t, config.DB.Model(&past).Update("title", "Retrospective").Error)
	upcoming := createMeeting(t, host, now.Add(time.Hour), now.Add(2*time.Hour), 10)
	require.NoError(t, config.DB.Model(&upcoming).Update("title", "Planning").Error)

	w := doJSON(t, r, ip, http.MethodGet, "/api/meetings", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].([]any), 2)

	w = doJSON(t, r, ip, http.MethodGet, "/api/meetings?filter=upcoming", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Planning", data[0].(map[string]any)["title"])

	w = doJSON(t, r, ip, http.MethodGet, "/api/meetings?filter=past", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "completed", data[0].(map[string]any)["status"])

	w = doJSON(t, r, ip, http.MethodGet, "/api/meetings?search=retro", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].([]any), 1)
}

func TestListMeetingsOnlyShowsOwn(t *testing.T) {
	r, ip := setupTest(t)
	host, _ := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	other, otherToken := createUser(t, "other@siriusregenerative.com", models.StatusApproved, false)
	meeting := liveMeeting(t, host)

	w := doJSON(t, r, ip, http.MethodGet, "/api/meetings", nil, otherToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["data"].([]any))

	// Enrolment makes it visible.
	require.NoError(t, config.DB.Create(&models.MeetingParticipant{
		MeetingID: meeting.ID,
		UserID:    other.ID,
		Role:      models.RoleParticipant,
	}).Error)
	w = doJSON(t, r, ip, http.MethodGet, "/api/meetings", nil, otherToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].([]any), 1)
}

func TestGetMeetingDetail(t *testing.T) {
	r, ip := setupTest(t)
	host, hostToken := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	guest, guestToken := createUser(t, "guest@siriusregenerative.com", models.StatusApproved, false)
	meeting := liveMeeting(t, host)
	require.NoError(t, config.DB.Create(&models.MeetingParticipant{
		MeetingID: meeting.ID,
		UserID:    guest.ID,
		Role:      models.RoleParticipant,
	}).Error)
	require.NoError(t, config.DB.Create(&models.MeetingInvitation{
		MeetingID:  meeting.ID,
		Email:      "outside@example.com",
		InvitedBy:  host.ID,
		Status:     models.InviteStatusPending,
		UniqueCode: meeting.InvitationCode + "-1-TESTCODE0",
	}).Error)

	w := doJSON(t, r, ip, http.MethodGet, fmt.Sprintf("/api/meetings/%d", meeting.ID), nil, hostToken)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["is_host"])
	assert.Len(t, data["participants"].([]any), 2)
	assert.Len(t, data["invitations"].([]any), 1)

	// Outstanding invitations are host-only.
	w = doJSON(t, r, ip, http.MethodGet, fmt.Sprintf("/api/meetings/%d", meeting.ID), nil, guestToken)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, false, data["is_host"])
	assert.NotContains(t, data, "invitations")
}

func TestUpdateMeeting(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	now := time.Now()
	meeting := createMeeting(t, host, now.Add(time.Hour), now.Add(2*time.Hour), 10)

	w := doJSON(t, r, ip, http.MethodPut, fmt.Sprintf("/api/meetings/%d", meeting.ID), map[string]any{
		"title":            "Renamed sync",
		"max_participants": 25,
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.Meeting
	require.NoError(t, config.DB.First(&fresh, meeting.ID).Error)
	assert.Equal(t, "Renamed sync", fresh.Title)
	assert.Equal(t, 25, fresh.MaxParticipants)
}

func TestUpdateMeetingRequiresHost(t *testing.T) {
	r, ip := setupTest(t)
	host, _ := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	_, otherToken := createUser(t, "other@siriusregenerative.com", models.StatusApproved, false)
	now := time.Now()
	meeting := createMeeting(t, host, now.Add(time.Hour), now.Add(2*time.Hour), 10)

	w := doJSON(t, r, ip, http.MethodPut, fmt.Sprintf("/api/meetings/%d", meeting.ID), map[string]any{
		"title": "Hijacked",
	}, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateMeetingRefusedOnceStarted(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	meeting := liveMeeting(t, host)

	w := doJSON(t, r, ip, http.MethodPut, fmt.Sprintf("/api/meetings/%d", meeting.ID), map[string]any{
		"title": "Too late",
	}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateMeetingRevalidatesWindow(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	now := time.Now()
	meeting := createMeeting(t, host, now.Add(time.Hour), now.Add(2*time.Hour), 10)

	// Moving only the end before the existing start must fail.
	w := doJSON(t, r, ip, http.MethodPut, fmt.Sprintf("/api/meetings/%d", meeting.ID), map[string]any{
		"scheduled_end": now.Add(30 * time.Minute).UTC().Format(time.RFC3339),
	}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteMeetingCascades(t *testing.T) {
	r, ip := setupTest(t)
	host, token := createUser(t, "host@siriusregenerative.com", models.StatusApproved, false)
	meeting := liveMeeting(t, host)
	require.NoError(t, config.DB.Create(&models.MeetingInvitation{
		MeetingID:  meeting.ID,
		Email:      "outside@example.com",
		InvitedBy:  host.ID,
		Status:     models.InviteStatusPending,
		UniqueCode: meeting.InvitationCode + "-1-TESTCODE1",
	}).Error)

	w := doJSON(t, r, ip, http.MethodDelete, fmt.Sprintf("/api/meetings/%d", meeting.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var meetings, participants, invitations int64
	config.DB.Model(&models.Meeting{}).Count(&meetings)
	config.DB.Model(&models.MeetingParticipant{}).Count(&participants)
	config.DB.Model(&models.MeetingInvitation{}).Count(&invitations)
	assert.Zero(t, meetings)
	assert.Zero(t, participants)
	assert.Zero(t, invitations)
}
