// Package localfiles exposes a directory of audio files as a catalog song
// source. Tags are read from the files themselves, play counts come from
// the play history, and a filesystem watcher flags the library stale when
// files change.
package localfiles

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog/log"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

// supported audio file extensions, lower case
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
}

// PlayStats supplies per-song playback statistics keyed by song ID.
type PlayStats interface {
	PlayCount(songID string) int
	LastPlayed(songID string) time.Time
}

// Source scans a music directory tree for audio files and .m3u playlists.
type Source struct {
	root  string
	stats PlayStats

	mu    sync.Mutex
	stale bool
}

// NewSource creates a source rooted at dir. stats may be nil, in which
// case all play counts are zero.
func NewSource(dir string, stats PlayStats) *Source {
	return &Source{root: dir, stats: stats}
}

// ListSongs walks the music directory and returns every readable audio
// file as a song. Files whose tags cannot be read still appear, titled
// after their filename.
func (s *Source) ListSongs(ctx context.Context) ([]*catalog.Song, error) {
	start := time.Now()
	var songs []*catalog.Song

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		songs = append(songs, s.readSong(path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stale = false
	s.mu.Unlock()

	log.Info().
		Int("songs", len(songs)).
		Dur("elapsed", time.Since(start)).
		Str("dir", s.root).
		Msg("Local music scan complete")
	return songs, nil
}

// readSong builds a song from one audio file.
func (s *Source) readSong(path string) *catalog.Song {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	uri := filepath.ToSlash(rel)

	song := &catalog.Song{
		ID:    catalog.SongID(uri),
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		URI:   uri,
	}

	if info, err := os.Stat(path); err == nil {
		song.AddedAt = info.ModTime()
	}

	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Cannot open audio file")
		return song
	}
	defer f.Close()

	if meta, err := tag.ReadFrom(f); err == nil {
		if t := meta.Title(); t != "" {
			song.Title = t
		}
		song.Artist = meta.Artist()
		song.Album = meta.Album()
		song.Genre = meta.Genre()
		if y := meta.Year(); y > 0 {
			song.ReleasedAt = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
	} else {
		log.Debug().Err(err).Str("path", path).Msg("No readable tags, using filename")
	}

	if dur, err := fileDuration(path); err == nil {
		song.Duration = dur
	} else {
		log.Debug().Err(err).Str("path", path).Msg("Cannot determine duration")
	}

	if s.stats != nil {
		song.PlayCount = s.stats.PlayCount(song.ID)
		song.LastPlayedAt = s.stats.LastPlayed(song.ID)
	}
	return song
}

// ListPlaylists parses every .m3u/.m3u8 file under the music directory.
func (s *Source) ListPlaylists(ctx context.Context) ([]catalog.PlaylistInfo, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".m3u" || ext == ".m3u8" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var playlists []catalog.PlaylistInfo
	for _, path := range paths {
		info, err := s.readPlaylist(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable playlist")
			continue
		}
		playlists = append(playlists, info)
	}
	return playlists, nil
}

// Stale reports whether the directory changed since the last scan.
func (s *Source) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Source) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}
