package contact

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

	err = db.AutoMigrate(&models.Contact{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedContact(t *testing.T, db *gorm.DB, contact models.Contact) models.Contact {
	t.Helper()

	created, err := Create(db, &contact)
	require.NoError(t, err, "failed to seed test data")

	return *created
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)

	t.Run("nil database", func(t *testing.T) {
		_, err := Create(nil, &models.Contact{GroupID: "g1", Name: "Promoter"})
		require.ErrorIs(t, err, ErrDBNil)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := Create(db, &models.Contact{GroupID: "g1"})
		require.ErrorIs(t, err, ErrContactNameEmpty)
	})

	t.Run("successful create", func(t *testing.T) {
		contact, err := Create(db, &models.Contact{
			GroupID: "g1", Name: "Jane Promoter", Email: "jane@venue.example", Role: "Organizer",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, contact.ID)
	})
}

func TestGetUpdateDelete(t *testing.T) {
	db := setupTestDB(t)

	seeded := seedContact(t, db, models.Contact{
		GroupID: "g1", Name: "Jane Promoter", Role: "Organizer",
	})

	t.Run("wrong group", func(t *testing.T) {
		_, err := Get(db, "other-group", seeded.ID)
		require.ErrorIs(t, err, ErrContactNotFound)
	})

	t.Run("update", func(t *testing.T) {
		seeded.Phone = "+49 30 123456"
		updated, err := Update(db, "g1", &seeded)
		require.NoError(t, err)
		assert.Equal(t, "+49 30 123456", updated.Phone)
	})

	t.Run("update unknown contact", func(t *testing.T) {
		_, err := Update(db, "g1", &models.Contact{ID: "missing", Name: "X"})
		require.ErrorIs(t, err, ErrContactNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, Delete(db, "g1", seeded.ID))
		require.ErrorIs(t, Delete(db, "g1", seeded.ID), ErrContactNotFound)
	})
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	seedContact(t, db, models.Contact{GroupID: "g1", Name: "Jane Promoter", Role: "Organizer"})
	seedContact(t, db, models.Contact{GroupID: "g1", Name: "Blue Note", Role: "Venue"})
	seedContact(t, db, models.Contact{GroupID: "g1", Name: "Sam Session", Role: "Musician"})
	seedContact(t, db, models.Contact{GroupID: "g2", Name: "Jane Foreign", Role: "Organizer"})

	t.Run("match by name", func(t *testing.T) {
		found, err := Search(db, "g1", "Jane")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Jane Promoter", found[0].Name)
	})

	t.Run("match by role", func(t *testing.T) {
		found, err := Search(db, "g1", "Venue")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Blue Note", found[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		found, err := Search(db, "g1", "zzz")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("get all ordered by name", func(t *testing.T) {
		all, err := GetAll(db, "g1")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Blue Note", all[0].Name)
	})
}
