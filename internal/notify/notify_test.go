package notify

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.DeviceToken{}, &models.Membership{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		userID        string
		token         string
		platform      string
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			userID:        "alice",
			token:         "t1",
			platform:      "ios",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty token",
			dbParam:       db,
			userID:        "alice",
			platform:      "ios",
			expectedError: ErrTokenEmpty,
		},
		{
			name:          "bad platform",
			dbParam:       db,
			userID:        "alice",
			token:         "t1",
			platform:      "windows",
			expectedError: ErrPlatformInvalid,
		},
		{
			name:     "successful register",
			dbParam:  db,
			userID:   "alice",
			token:    "t1",
			platform: "ios",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Register(tc.dbParam, tc.userID, tc.token, tc.platform)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("re-register moves the token", func(t *testing.T) {
		require.NoError(t, Register(db, "bob", "t1", "android"))

		tokens, err := TokensFor(db, "bob")
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, "android", tokens[0].Platform)

		orphaned, err := TokensFor(db, "alice")
		require.NoError(t, err)
		assert.Empty(t, orphaned, "old owner must lose the token")
	})
}

func TestUnregister(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Register(db, "alice", "t1", "ios"))

	t.Run("wrong owner", func(t *testing.T) {
		require.ErrorIs(t, Unregister(db, "bob", "t1"), ErrTokenNotFound)
	})

	t.Run("successful unregister", func(t *testing.T) {
		require.NoError(t, Unregister(db, "alice", "t1"))
		require.ErrorIs(t, Unregister(db, "alice", "t1"), ErrTokenNotFound)
	})
}

func TestTokensForGroup(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Register(db, "alice", "t1", "ios"))
	require.NoError(t, Register(db, "bob", "t2", "android"))
	require.NoError(t, Register(db, "carol", "t3", "ios"))

	memberships := []models.Membership{
		{GroupID: "g1", UserID: "alice", Status: models.MembershipMember},
		{GroupID: "g1", UserID: "bob", Status: models.MembershipPending},
		{GroupID: "g2", UserID: "carol", Status: models.MembershipMember},
	}
	for _, m := range memberships {
		require.NoError(t, db.Create(&m).Error)
	}

	tokens, err := TokensForGroup(db, "g1")
	require.NoError(t, err)
	require.Len(t, tokens, 1, "pending and foreign members are excluded")
	assert.Equal(t, "t1", tokens[0].Token)
}
