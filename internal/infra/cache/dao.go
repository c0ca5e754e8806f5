package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// DAO provides data access operations for the cache.
type DAO struct {
	db *DB
}

// NewDAO creates a new DAO instance.
func NewDAO(db *DB) *DAO {
	return &DAO{db: db}
}

// --- Song Operations ---

// InsertSongTx inserts a song within a transaction. position fixes the
// song's place in source order.
func (dao *DAO) InsertSongTx(tx *sql.Tx, song *SongData, position int) error {
	_, err := tx.Exec(`
		INSERT INTO songs (id, position, title, artist, album, genre, uri,
			play_count, duration, added_at, released_at, last_played_at, artwork_uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = ?, title = ?, artist = ?, album = ?, genre = ?, uri = ?,
			play_count = ?, duration = ?, added_at = ?, released_at = ?,
			last_played_at = ?, artwork_uri = ?
	`,
		song.ID, position, song.Title, song.Artist, song.Album, song.Genre, song.URI,
		song.PlayCount, song.Duration, formatTime(song.AddedAt), formatTime(song.ReleasedAt),
		formatTime(song.LastPlayedAt), song.ArtworkURI,
		position, song.Title, song.Artist, song.Album, song.Genre, song.URI,
		song.PlayCount, song.Duration, formatTime(song.AddedAt), formatTime(song.ReleasedAt),
		formatTime(song.LastPlayedAt), song.ArtworkURI,
	)
	return err
}

// LoadSongs returns every cached song in source order.
func (dao *DAO) LoadSongs() ([]*SongData, error) {
	db := dao.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(`
		SELECT id, title, artist, album, genre, uri, play_count, duration,
			added_at, released_at, last_played_at, artwork_uri
		FROM songs ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []*SongData
	for rows.Next() {
		song := &SongData{}
		var addedAt, releasedAt, lastPlayedAt sql.NullString

		err := rows.Scan(
			&song.ID, &song.Title, &song.Artist, &song.Album, &song.Genre, &song.URI,
			&song.PlayCount, &song.Duration, &addedAt, &releasedAt, &lastPlayedAt,
			&song.ArtworkURI,
		)
		if err != nil {
			return nil, err
		}

		song.AddedAt = parseTime(addedAt)
		song.ReleasedAt = parseTime(releasedAt)
		song.LastPlayedAt = parseTime(lastPlayedAt)
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// --- Playlist Operations ---

// InsertPlaylistTx inserts a playlist and its membership rows within a
// transaction.
func (dao *DAO) InsertPlaylistTx(tx *sql.Tx, playlist *PlaylistData, position int) error {
	_, err := tx.Exec(`
		INSERT INTO playlists (id, position, name, artwork_uri)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET position = ?, name = ?, artwork_uri = ?
	`,
		playlist.ID, position, playlist.Name, playlist.ArtworkURI,
		position, playlist.Name, playlist.ArtworkURI,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlist.ID); err != nil {
		return err
	}
	for i, songID := range playlist.SongIDs {
		_, err := tx.Exec(`
			INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)
		`, playlist.ID, songID, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadPlaylists returns every cached playlist with its ordered song IDs.
func (dao *DAO) LoadPlaylists() ([]*PlaylistData, error) {
	db := dao.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query("SELECT id, name, artwork_uri FROM playlists ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []*PlaylistData
	for rows.Next() {
		pl := &PlaylistData{}
		if err := rows.Scan(&pl.ID, &pl.Name, &pl.ArtworkURI); err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, pl := range playlists {
		songRows, err := db.Query(`
			SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position
		`, pl.ID)
		if err != nil {
			return nil, err
		}
		for songRows.Next() {
			var songID string
			if err := songRows.Scan(&songID); err != nil {
				songRows.Close()
				return nil, err
			}
			pl.SongIDs = append(pl.SongIDs, songID)
		}
		if err := songRows.Err(); err != nil {
			songRows.Close()
			return nil, err
		}
		songRows.Close()
	}

	return playlists, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}
