package setlist

import (
	"testing"
	"time"

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

	err = db.AutoMigrate(&models.Setlist{}, &models.SetlistSong{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func titles(songs []models.SetlistSong) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title
	}

	return out
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)

	t.Run("nil database", func(t *testing.T) {
		_, err := Create(nil, "g1", "Friday Set", "alice")
		require.ErrorIs(t, err, ErrDBNil)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := Create(db, "g1", "", "alice")
		require.ErrorIs(t, err, ErrSetlistNameEmpty)
	})

	t.Run("successful create", func(t *testing.T) {
		setlist, err := Create(db, "g1", "Friday Set", "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, setlist.ID)
		assert.Equal(t, "alice", setlist.CreatedBy)
	})
}

func TestSongOrdering(t *testing.T) {
	db := setupTestDB(t)

	setlist, err := Create(db, "g1", "Friday Set", "alice")
	require.NoError(t, err)

	for _, title := range []string{"Opener", "Middle", "Closer"} {
		_, err := AddSong(db, "g1", setlist.ID, title, 200, 120)
		require.NoError(t, err)
	}

	t.Run("songs append in order", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Opener", "Middle", "Closer"}, titles(loaded.Songs))
		assert.Equal(t, []int{0, 1, 2}, []int{loaded.Songs[0].Position, loaded.Songs[1].Position, loaded.Songs[2].Position})
	})

	t.Run("total duration", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		assert.Equal(t, 600*time.Second, loaded.TotalDuration())
	})

	t.Run("empty song title", func(t *testing.T) {
		_, err := AddSong(db, "g1", setlist.ID, "", 100, 0)
		require.ErrorIs(t, err, ErrSongTitleEmpty)
	})

	t.Run("move forward", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		opener := loaded.Songs[0]

		require.NoError(t, MoveSong(db, "g1", setlist.ID, opener.ID, 2))

		loaded, err = Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Middle", "Closer", "Opener"}, titles(loaded.Songs))
	})

	t.Run("move backward", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		opener := loaded.Songs[2]

		require.NoError(t, MoveSong(db, "g1", setlist.ID, opener.ID, 0))

		loaded, err = Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Opener", "Middle", "Closer"}, titles(loaded.Songs))
	})

	t.Run("move out of range", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)

		require.ErrorIs(t, MoveSong(db, "g1", setlist.ID, loaded.Songs[0].ID, 3), ErrPositionOutOfRange)
		require.ErrorIs(t, MoveSong(db, "g1", setlist.ID, loaded.Songs[0].ID, -1), ErrPositionOutOfRange)
	})

	t.Run("remove closes the gap", func(t *testing.T) {
		loaded, err := Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		middle := loaded.Songs[1]

		require.NoError(t, RemoveSong(db, "g1", setlist.ID, middle.ID))

		loaded, err = Get(db, "g1", setlist.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Opener", "Closer"}, titles(loaded.Songs))
		assert.Equal(t, 0, loaded.Songs[0].Position)
		assert.Equal(t, 1, loaded.Songs[1].Position)
	})

	t.Run("remove unknown song", func(t *testing.T) {
		require.ErrorIs(t, RemoveSong(db, "g1", setlist.ID, 9999), ErrSongNotFound)
	})
}

func TestRenameAndDelete(t *testing.T) {
	db := setupTestDB(t)

	setlist, err := Create(db, "g1", "Friday Set", "alice")
	require.NoError(t, err)
	_, err = AddSong(db, "g1", setlist.ID, "Opener", 180, 0)
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		renamed, err := Rename(db, "g1", setlist.ID, "Saturday Set")
		require.NoError(t, err)
		assert.Equal(t, "Saturday Set", renamed.Name)
	})

	t.Run("rename unknown setlist", func(t *testing.T) {
		_, err := Rename(db, "g1", "missing", "X")
		require.ErrorIs(t, err, ErrSetlistNotFound)
	})

	t.Run("wrong group cannot touch the setlist", func(t *testing.T) {
		_, err := Get(db, "other-group", setlist.ID)
		require.ErrorIs(t, err, ErrSetlistNotFound)

		require.ErrorIs(t, Delete(db, "other-group", setlist.ID), ErrSetlistNotFound)
	})

	t.Run("delete removes songs too", func(t *testing.T) {
		require.NoError(t, Delete(db, "g1", setlist.ID))

		_, err := Get(db, "g1", setlist.ID)
		require.ErrorIs(t, err, ErrSetlistNotFound)

		var orphans int64
		require.NoError(t, db.Model(&models.SetlistSong{}).Where("setlist_id = ?", setlist.ID).Count(&orphans).Error)
		assert.Zero(t, orphans)
	})
}

func TestGetAll(t *testing.T) {
	db := setupTestDB(t)

	_, err := Create(db, "g1", "First", "alice")
	require.NoError(t, err)
	_, err = Create(db, "g1", "Second", "alice")
	require.NoError(t, err)
	_, err = Create(db, "g2", "Foreign", "bob")
	require.NoError(t, err)

	setlists, err := GetAll(db, "g1")
	require.NoError(t, err)
	assert.Len(t, setlists, 2)
}
