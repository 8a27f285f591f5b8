package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

// LocalTrackRepository reads the local audio library.
//
// The library is owned by the scanner; this subsystem only lists and looks up
// tracks. Create exists for the scanner-side ingest path and for seeding.
type LocalTrackRepository struct {
	db *sql.DB
}

// NewLocalTrackRepository creates a new LocalTrackRepository with the given database connection
func NewLocalTrackRepository(db *sql.DB) *LocalTrackRepository {
	return &LocalTrackRepository{db: db}
}

// ListAll returns the full library snapshot, ordered by id for determinism.
//
// Used once per pipeline or sweep invocation, never per row.
func (r *LocalTrackRepository) ListAll(ctx context.Context) ([]models.LocalTrack, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, artist_name, album_title, duration, file_path
		FROM local_tracks
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list local tracks: %v", shared.ErrStoreRead, err)
	}
	defer rows.Close()

	var tracks []models.LocalTrack
	for rows.Next() {
		var t models.LocalTrack
		if err := rows.Scan(&t.ID, &t.Title, &t.ArtistName, &t.AlbumTitle, &t.Duration, &t.FilePath); err != nil {
			return nil, fmt.Errorf("%w: failed to scan local track: %v", shared.ErrStoreRead, err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStoreRead, err)
	}

	return tracks, nil
}

// Get retrieves a local track by ID.
func (r *LocalTrackRepository) Get(ctx context.Context, id string) (*models.LocalTrack, error) {
	var t models.LocalTrack
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, artist_name, album_title, duration, file_path
		FROM local_tracks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.ArtistName, &t.AlbumTitle, &t.Duration, &t.FilePath)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: local track %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get local track: %v", shared.ErrStoreRead, err)
	}

	return &t, nil
}

// Create inserts a new local track, generating its id when absent.
func (r *LocalTrackRepository) Create(ctx context.Context, track *models.LocalTrack) error {
	if track.ID == "" {
		track.ID = shared.GenerateID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_tracks (id, title, artist_name, album_title, duration, file_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, track.ID, track.Title, track.ArtistName, track.AlbumTitle, track.Duration, track.FilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to insert local track: %v", shared.ErrStoreWrite, err)
	}

	return nil
}
