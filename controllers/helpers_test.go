package controller_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"photogroup/config"
	"photogroup/models"
	"photogroup/routes"
	"photogroup/utils"
)

type testEnv struct {
	App   *fiber.App
	DB    *gorm.DB
	Cfg   *config.Config
	Store *utils.FileStore
}

// newTestDB opens a file-backed SQLite database (modernc driver, no cgo) in a
// per-test temp dir so pooled connections all see the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, config.MigrateDB(db), "failed to migrate")
	return db
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Environment:     "test",
		EncryptionKey:   "test-secret-key",
		UploadDir:       t.TempDir(),
		UploadMaxMB:     5,
		RateLimitUpload: 100,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db := newTestDB(t)
	store, err := utils.NewFileStore(cfg.UploadDir)
	require.NoError(t, err)

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, store)

	return &testEnv{App: app, DB: db, Cfg: cfg, Store: store}
}

// doJSON performs a JSON request and decodes the response body into a map.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// encodePNG renders a small real image so uploads can exercise decoding.
func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newGetRequest builds an authenticated GET request.
func newGetRequest(t *testing.T, path, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// decodeList decodes a response body holding a JSON array.
func decodeList(t *testing.T, resp *http.Response) []any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var items []any
	require.NoError(t, json.Unmarshal(raw, &items), "body: %s", raw)
	return items
}

// registerUser registers an account and returns its access token and ID.
func registerUser(t *testing.T, env *testEnv, username, email, phone string) (string, uint) {
	t.Helper()

	resp, body := doJSON(t, env.App, http.MethodPost, "/auth/register", "", fiber.Map{
		"username":     username,
		"email":        email,
		"password":     "password123",
		"phone_number": phone,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register %s: %v", username, body)

	token := body["access_token"].(string)
	user := body["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

// promoteToSuperAdmin flips the moderation flag directly in the store.
func promoteToSuperAdmin(t *testing.T, env *testEnv, userID uint) {
	t.Helper()
	err := env.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("is_super_admin", true).Error
	require.NoError(t, err)
}

// createGroup creates a group for the token's user and returns code and ID.
func createGroup(t *testing.T, env *testEnv, token string) (string, uint) {
	t.Helper()

	resp, body := doJSON(t, env.App, http.MethodPost, "/groups/create", token, fiber.Map{})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create group: %v", body)
	return body["group_code"].(string), uint(body["group_id"].(float64))
}

// uploadFile posts a multipart upload of the given content into a group.
func uploadFile(t *testing.T, env *testEnv, token, groupCode, filename string, content []byte) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("group_code", groupCode))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/photos/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}
