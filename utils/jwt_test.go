package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"photogroup/models"
)

const testSecret = "test-secret-key"

func TestJWTRoundTrip(t *testing.T) {
	user := &models.User{ID: 42, Username: "alice"}

	access, refresh, err := GenerateJWTToken(user, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := ParseJWTToken(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	claims, err = ParseJWTToken(refresh, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestParseJWTTokenRejectsBadInput(t *testing.T) {
	user := &models.User{ID: 7}
	access, _, err := GenerateJWTToken(user, testSecret)
	require.NoError(t, err)

	_, err = ParseJWTToken(access, "some-other-secret")
	assert.Error(t, err)

	_, err = ParseJWTToken("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestRefreshTokens(t *testing.T) {
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}
	db, err := gorm.Open(dial, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", PhoneNumber: "+1555"}
	require.NoError(t, db.Create(&user).Error)

	access, refresh, err := GenerateJWTToken(&user, testSecret)
	require.NoError(t, err)

	access2, refresh2, err := RefreshTokens(db, refresh, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEmpty(t, refresh2)

	// An access token parses but is not exchangeable.
	_, _, err = RefreshTokens(db, access, testSecret)
	assert.Error(t, err)

	// An access token cannot be refreshed once the account is gone.
	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)
	_, _, err = RefreshTokens(db, refresh, testSecret)
	assert.Error(t, err)
}
