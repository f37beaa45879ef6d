package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/models"
)

func TestAdminRoutesRequireSuperAdmin(t *testing.T) {
	r, ip := setupTest(t)
	_, token := createUser(t, "ada@siriusregenerative.com", models.StatusApproved, false)

	w := doJSON(t, r, ip, http.MethodGet, "/api/admin/users/pending", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, ip, http.MethodPost, "/api/admin/users/1/approve", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListPendingUsers(t *testing.T) {
	r, ip := setupTest(t)
	_, adminToken := createUser(t, "admin@siriusregenerative.com", models.StatusApproved, true)
	createUser(t, "first@siriusregenerative.com", models.StatusPending, false)
	createUser(t, "second@siriusregenerative.com", models.StatusPending, false)
	createUser(t, "done@siriusregenerative.com", models.StatusApproved, false)

	w := doJSON(t, r, ip, http.MethodGet, "/api/admin/users/pending", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	assert.Len(t, data, 2)
}

func TestApproveUser(t *testing.T) {
	r, ip := setupTest(t)
	_, adminToken := createUser(t, "admin@siriusregenerative.com", models.StatusApproved, true)
	user, _ := createUser(t, "ada@siriusregenerative.com", models.StatusPending, false)

	// The email-confirmation procedure does not exist in this database;
	// approval must succeed regardless.
	w := doJSON(t, r, ip, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/approve", user.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.Profile
	require.NoError(t, config.DB.First(&fresh, user.ID).Error)
	assert.Equal(t, models.StatusApproved, fresh.Status)
}

func TestRejectUser(t *testing.T) {
	r, ip := setupTest(t)
	_, adminToken := createUser(t, "admin@siriusregenerative.com", models.StatusApproved, true)
	user, _ := createUser(t, "ada@siriusregenerative.com", models.StatusPending, false)

	w := doJSON(t, r, ip, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reject", user.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.Profile
	require.NoError(t, config.DB.First(&fresh, user.ID).Error)
	assert.Equal(t, models.StatusRejected, fresh.Status)
}

func TestTransitionIsSingleShot(t *testing.T) {
	r, ip := setupTest(t)
	_, adminToken := createUser(t, "admin@siriusregenerative.com", models.StatusApproved, true)
	user, _ := createUser(t, "ada@siriusregenerative.com", models.StatusPending, false)

	w := doJSON(t, r, ip, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/approve", user.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	// A reviewed account cannot be flipped again, in either direction.
	w = doJSON(t, r, ip, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/approve", user.ID), nil, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(t, r, ip, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reject", user.ID), nil, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTransitionUnknownUser(t *testing.T) {
	r, ip := setupTest(t)
	_, adminToken := createUser(t, "admin@siriusregenerative.com", models.StatusApproved, true)

	w := doJSON(t, r, ip, http.MethodPost, "/api/admin/users/9999/approve", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, ip, http.MethodPost, "/api/admin/users/abc/approve", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
