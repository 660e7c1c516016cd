package models

import "time"

// Setlist is an ordered collection of songs for a show or rehearsal.
type Setlist struct {
	// ID is the unique identifier for the setlist (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// GroupID scopes the setlist to a group.
	GroupID string `gorm:"size:36;index;not null" json:"groupId"`
	// Name is the setlist title.
	Name string `gorm:"size:200;not null" json:"name"`
	// CreatedBy is the user who created the setlist.
	CreatedBy string `gorm:"size:36" json:"createdBy"`
	// Songs are the entries in play order.
	Songs []SetlistSong `gorm:"foreignKey:SetlistID;constraint:OnDelete:CASCADE" json:"songs,omitempty"`
	// CreatedAt is the timestamp when the setlist was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the setlist was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Setlist model.
func (Setlist) TableName() string {
	return "setlists"
}

// TotalDuration sums the duration of all songs.
func (s *Setlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, song := range s.Songs {
		total += time.Duration(song.DurationSec) * time.Second
	}

	return total
}

// SetlistSong is one song inside a setlist.
type SetlistSong struct {
	// ID is the unique identifier for the entry.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// SetlistID is the setlist this song belongs to.
	SetlistID string `gorm:"size:36;index;not null" json:"setlistId"`
	// Position orders songs inside the setlist, starting at 0.
	Position int `gorm:"not null" json:"position"`
	// Title is the song title.
	Title string `gorm:"size:200;not null" json:"title"`
	// DurationSec is the song length in seconds.
	DurationSec int `json:"durationSec"`
	// BPM is the tempo, 0 when unknown.
	BPM int `json:"bpm"`
}

// TableName specifies the database table name for the SetlistSong model.
func (SetlistSong) TableName() string {
	return "setlist_songs"
}
