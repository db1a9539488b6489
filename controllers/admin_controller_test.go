package controller_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photogroup/models"
	"photogroup/utils"
)

// moderationFixture seeds an admin, an uploader with one photo in a shared
// group, and a pending report against that photo.
type moderationFixture struct {
	env           *testEnv
	adminToken    string
	adminID       uint
	uploaderToken string
	uploaderID    uint
	photoID       uint
	fileName      string
	reportID      uint
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	env := newTestEnv(t)

	adminToken, adminID := registerUser(t, env, "admin", "admin@example.com", "+15550100")
	promoteToSuperAdmin(t, env, adminID)
	uploaderToken, uploaderID := registerUser(t, env, "mallory", "mallory@example.com", "+15550101")
	code, _ := registerUserGroup(t, env, adminToken, uploaderToken)

	resp, body := uploadFile(t, env, uploaderToken, code, "offensive.png", encodePNG(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fileName := body["filename"].(string)
	require.True(t, env.Store.Exists(utils.ThumbPrefix+fileName))

	var photo models.Photo
	require.NoError(t, env.DB.Where("file_name = ?", fileName).First(&photo).Error)

	resp, _ = doJSON(t, env.App, http.MethodPost, "/reports", adminToken, fiber.Map{
		"photo_id": photo.ID,
		"reason":   "inappropriate",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var report models.ContentReport
	require.NoError(t, env.DB.Where("photo_id = ?", photo.ID).First(&report).Error)

	return &moderationFixture{
		env:           env,
		adminToken:    adminToken,
		adminID:       adminID,
		uploaderToken: uploaderToken,
		uploaderID:    uploaderID,
		photoID:       photo.ID,
		fileName:      fileName,
		reportID:      report.ID,
	}
}

func (f *moderationFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.env.DB.Model(model).Count(&n).Error)
	return n
}

func TestReportContent(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := registerUser(t, env, "alice", "alice@example.com", "+15550001")
	bobToken, _ := registerUser(t, env, "bob", "bob@example.com", "+15550002")
	code, _ := registerUserGroup(t, env, aliceToken, bobToken)

	_, body := uploadFile(t, env, bobToken, code, "photo.jpg", []byte("x"))
	var photo models.Photo
	require.NoError(t, env.DB.Where("file_name = ?", body["filename"]).First(&photo).Error)

	t.Run("creates a pending report capturing the uploader", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/reports", aliceToken, fiber.Map{
			"photo_id": photo.ID,
			"reason":   "spam",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var report models.ContentReport
		require.NoError(t, env.DB.Where("photo_id = ?", photo.ID).First(&report).Error)
		assert.Equal(t, models.ReportStatusPending, report.Status)
		assert.Equal(t, photo.UserID, report.UploaderID)
	})

	t.Run("unknown photo", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/reports", aliceToken, fiber.Map{
			"photo_id": uint(99999),
			"reason":   "spam",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing reason", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/reports", aliceToken, fiber.Map{
			"photo_id": photo.ID,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetReports(t *testing.T) {
	f := newModerationFixture(t)

	t.Run("super admin sees the queue", func(t *testing.T) {
		req := newGetRequest(t, "/admin/get-reports", f.adminToken)
		resp, err := f.env.App.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		items := decodeList(t, resp)
		require.Len(t, items, 1)
		entry := items[0].(map[string]any)
		assert.Equal(t, "mallory", entry["uploader_username"])
		assert.Equal(t, "admin", entry["reporter_username"])
		assert.Equal(t, "pending", entry["status"])
		assert.Contains(t, entry["photo_url"], f.fileName)
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		resp, _ := doJSON(t, f.env.App, http.MethodGet, "/admin/get-reports", f.uploaderToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestResolveReportDismiss(t *testing.T) {
	f := newModerationFixture(t)

	resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
		"report_id": f.reportID,
		"action":    "dismiss",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Zero(t, f.count(t, &models.ContentReport{}))
	assert.EqualValues(t, 1, f.count(t, &models.Photo{}))
	assert.True(t, f.env.Store.Exists(f.fileName))
}

func TestResolveReportDeleteContent(t *testing.T) {
	t.Run("removes photo row, report row, stored file and thumbnail", func(t *testing.T) {
		f := newModerationFixture(t)

		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "delete_content",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Zero(t, f.count(t, &models.Photo{}))
		assert.Zero(t, f.count(t, &models.ContentReport{}))
		assert.False(t, f.env.Store.Exists(f.fileName))
		assert.False(t, f.env.Store.Exists(utils.ThumbPrefix+f.fileName))
	})

	t.Run("stored file already missing still consumes both rows", func(t *testing.T) {
		f := newModerationFixture(t)
		require.NoError(t, f.env.Store.Remove(f.fileName))

		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "delete_content",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Zero(t, f.count(t, &models.Photo{}))
		assert.Zero(t, f.count(t, &models.ContentReport{}))
	})

	t.Run("photo row already gone still consumes the report", func(t *testing.T) {
		f := newModerationFixture(t)
		require.NoError(t, f.env.DB.Delete(&models.Photo{}, f.photoID).Error)

		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "delete_content",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Zero(t, f.count(t, &models.ContentReport{}))
	})
}

func TestResolveReportBanUser(t *testing.T) {
	t.Run("bans and deletes the uploader", func(t *testing.T) {
		f := newModerationFixture(t)

		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "ban_user",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var bans []models.BannedUser
		require.NoError(t, f.env.DB.Find(&bans).Error)
		require.Len(t, bans, 1)
		assert.Equal(t, "mallory", bans[0].Username)
		assert.Equal(t, models.BanReasonReportedContent, bans[0].Reason)

		var userCount int64
		f.env.DB.Model(&models.User{}).Where("id = ?", f.uploaderID).Count(&userCount)
		assert.Zero(t, userCount)

		var memberCount int64
		f.env.DB.Model(&models.GroupMember{}).Where("user_id = ?", f.uploaderID).Count(&memberCount)
		assert.Zero(t, memberCount)

		assert.Zero(t, f.count(t, &models.ContentReport{}))

		// A deleted account's token stops working.
		resp, _ = doJSON(t, f.env.App, http.MethodGet, "/auth/me", f.uploaderToken, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("self-ban is rejected and the report stays", func(t *testing.T) {
		f := newModerationFixture(t)

		// Report the admin's own upload.
		code, _ := createGroup(t, f.env, f.adminToken)
		_, body := uploadFile(t, f.env, f.adminToken, code, "mine.jpg", []byte("x"))
		var photo models.Photo
		require.NoError(t, f.env.DB.Where("file_name = ?", body["filename"]).First(&photo).Error)
		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/reports", f.uploaderToken, fiber.Map{
			"photo_id": photo.ID,
			"reason":   "grudge",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var report models.ContentReport
		require.NoError(t, f.env.DB.Where("photo_id = ?", photo.ID).First(&report).Error)

		resp, _ = doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": report.ID,
			"action":    "ban_user",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var reportCount int64
		f.env.DB.Model(&models.ContentReport{}).Where("id = ?", report.ID).Count(&reportCount)
		assert.EqualValues(t, 1, reportCount)
		assert.Zero(t, f.count(t, &models.BannedUser{}))
	})

	t.Run("uploader already deleted still consumes the report", func(t *testing.T) {
		f := newModerationFixture(t)
		require.NoError(t, f.env.DB.Delete(&models.User{}, f.uploaderID).Error)

		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "ban_user",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Zero(t, f.count(t, &models.ContentReport{}))
		assert.Zero(t, f.count(t, &models.BannedUser{}))
	})
}

func TestResolveReportValidation(t *testing.T) {
	f := newModerationFixture(t)

	t.Run("unknown report", func(t *testing.T) {
		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": uint(99999),
			"action":    "dismiss",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown action", func(t *testing.T) {
		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.adminToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "escalate",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-admin", func(t *testing.T) {
		resp, _ := doJSON(t, f.env.App, http.MethodPost, "/admin/resolve-report", f.uploaderToken, fiber.Map{
			"report_id": f.reportID,
			"action":    "dismiss",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestManualBan(t *testing.T) {
	env := newTestEnv(t)
	adminToken, adminID := registerUser(t, env, "admin", "admin@example.com", "+15550100")
	promoteToSuperAdmin(t, env, adminID)

	t.Run("ban by phone", func(t *testing.T) {
		_, targetID := registerUser(t, env, "eve", "eve@example.com", "+15550201")

		resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{
			"phone": "+15550201",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var ban models.BannedUser
		require.NoError(t, env.DB.Where("phone_number = ?", "+15550201").First(&ban).Error)
		assert.Equal(t, models.BanReasonManual, ban.Reason)

		var userCount int64
		env.DB.Model(&models.User{}).Where("id = ?", targetID).Count(&userCount)
		assert.Zero(t, userCount)
	})

	t.Run("ban by id", func(t *testing.T) {
		_, targetID := registerUser(t, env, "oscar", "oscar@example.com", "+15550202")

		resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{
			"target_id": targetID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("self-ban is rejected", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{
			"target_id": adminID,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown target", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{
			"phone": "+19999999",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("no selector", func(t *testing.T) {
		resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBannedUsersAndUnban(t *testing.T) {
	env := newTestEnv(t)
	adminToken, adminID := registerUser(t, env, "admin", "admin@example.com", "+15550100")
	promoteToSuperAdmin(t, env, adminID)
	registerUser(t, env, "eve", "eve@example.com", "+15550201")

	resp, _ := doJSON(t, env.App, http.MethodPost, "/admin/manual-ban", adminToken, fiber.Map{
		"phone": "+15550201",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := newGetRequest(t, "/admin/get-banned-users", adminToken)
	listResp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	items := decodeList(t, listResp)
	require.Len(t, items, 1)
	banID := uint(items[0].(map[string]any)["id"].(float64))

	// Unbanning frees the phone number for registration again.
	resp, _ = doJSON(t, env.App, http.MethodPost, "/admin/unban-user", adminToken, fiber.Map{
		"banned_id": banID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, env.App, http.MethodPost, "/auth/register", "", fiber.Map{
		"username":     "eve2",
		"email":        "eve2@example.com",
		"password":     "password123",
		"phone_number": "+15550201",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
