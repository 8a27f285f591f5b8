package models

import "time"

// Metadata is the comparable description of a recording, as carried by
// playlist imports and provider search payloads.
type Metadata struct {
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
	ISRC     string `json:"isrc,omitempty"`
}

// LocalTrack is a track in the local audio library.
//
// Rows are owned by the library scanner; this subsystem treats them as
// immutable and only ever reads them.
type LocalTrack struct {
	ID         string
	Title      string
	ArtistName string
	AlbumTitle string
	Duration   int // seconds
	FilePath   string
}

// Metadata returns the track's comparable metadata.
func (t LocalTrack) Metadata() Metadata {
	return Metadata{
		Artist:   t.ArtistName,
		Title:    t.Title,
		Album:    t.AlbumTitle,
		Duration: t.Duration,
	}
}

// TidalTrack is a cached Tidal catalog row, upserted by its provider-native
// TidalID. Descriptive fields are refreshed on every upsert.
type TidalTrack struct {
	ID        string
	TidalID   string
	Title     string
	Artist    string
	Album     string
	Duration  int
	ISRC      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// YouTubeTrack is a cached YouTube Music catalog row, upserted by its
// provider-native VideoID.
type YouTubeTrack struct {
	ID        string
	VideoID   string
	Title     string
	Artist    string
	Album     string
	Duration  int
	ISRC      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Match is a provider search hit for one metadata item: the provider-native
// id plus the provider's descriptive fields and a 0-100 candidate score.
type Match struct {
	ProviderID string
	Title      string
	Artist     string
	Album      string
	Duration   int
	ISRC       string
	Score      int
}

// Metadata returns the match's comparable metadata.
func (m Match) Metadata() Metadata {
	return Metadata{
		Artist:   m.Artist,
		Title:    m.Title,
		Album:    m.Album,
		Duration: m.Duration,
		ISRC:     m.ISRC,
	}
}
