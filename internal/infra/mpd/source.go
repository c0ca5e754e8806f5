package mpd

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

// Sticker names used to persist per-song playback statistics in MPD.
const (
	StickerPlayCount  = "playCount"
	StickerLastPlayed = "lastPlayed"
)

// Source exposes the MPD database as a catalog song source. Play counts
// and last-played times come from MPD stickers when available.
type Source struct {
	client *Client
}

// NewSource creates a song source backed by the given MPD client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// ListSongs returns every song in the MPD database with playback
// statistics merged in. A sticker failure degrades to zero counts.
func (s *Source) ListSongs(ctx context.Context) ([]*catalog.Song, error) {
	attrs, err := s.client.ListAllSongs()
	if err != nil {
		return nil, err
	}

	playCounts, err := s.client.Stickers(StickerPlayCount)
	if err != nil {
		log.Debug().Err(err).Msg("Play count stickers unavailable")
		playCounts = nil
	}
	lastPlayed, err := s.client.Stickers(StickerLastPlayed)
	if err != nil {
		log.Debug().Err(err).Msg("Last played stickers unavailable")
		lastPlayed = nil
	}

	songs := make([]*catalog.Song, 0, len(attrs))
	for _, attr := range attrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		song := songFromAttrs(attr)
		if song == nil {
			continue
		}
		if v, ok := playCounts[song.URI]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				song.PlayCount = n
			}
		}
		if v, ok := lastPlayed[song.URI]; ok {
			if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
				song.LastPlayedAt = time.Unix(sec, 0)
			}
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// ListPlaylists returns MPD's stored playlists as ordered song ID lists.
func (s *Source) ListPlaylists(ctx context.Context) ([]catalog.PlaylistInfo, error) {
	names, err := s.client.ListStoredPlaylists()
	if err != nil {
		return nil, err
	}

	playlists := make([]catalog.PlaylistInfo, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		uris, err := s.client.PlaylistContents(name)
		if err != nil {
			log.Debug().Err(err).Str("playlist", name).Msg("Skipping unreadable playlist")
			continue
		}
		info := catalog.PlaylistInfo{
			ID:   catalog.PlaylistID(name),
			Name: name,
		}
		for _, uri := range uris {
			info.SongIDs = append(info.SongIDs, catalog.SongID(uri))
		}
		playlists = append(playlists, info)
	}
	return playlists, nil
}

// RecordPlay bumps the play-count sticker for a song and stamps the
// last-played sticker with the current time.
func (s *Source) RecordPlay(uri string) error {
	playCounts, err := s.client.Stickers(StickerPlayCount)
	if err != nil {
		return err
	}
	count := 0
	if v, ok := playCounts[uri]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			count = n
		}
	}
	if err := s.client.SetSticker(uri, StickerPlayCount, strconv.Itoa(count+1)); err != nil {
		return err
	}
	return s.client.SetSticker(uri, StickerLastPlayed, strconv.FormatInt(time.Now().Unix(), 10))
}

// songFromAttrs converts an MPD database entry to a catalog song.
// Entries without a file URI (directories, playlists) yield nil.
func songFromAttrs(attr mpd.Attrs) *catalog.Song {
	uri := attr["file"]
	if uri == "" {
		return nil
	}

	title := attr["Title"]
	if title == "" {
		title = strings.TrimSuffix(path.Base(uri), path.Ext(uri))
	}

	song := &catalog.Song{
		ID:     catalog.SongID(uri),
		Title:  title,
		Artist: attr["Artist"],
		Album:  attr["Album"],
		Genre:  attr["Genre"],
		URI:    uri,
	}

	if dur, err := strconv.ParseFloat(attr["duration"], 64); err == nil {
		song.Duration = int(dur + 0.5)
	} else if sec, err := strconv.Atoi(attr["Time"]); err == nil {
		song.Duration = sec
	}

	if t, err := time.Parse(time.RFC3339, attr["Last-Modified"]); err == nil {
		song.AddedAt = t
	}
	song.ReleasedAt = parseReleaseDate(attr["Date"])

	return song
}

// parseReleaseDate handles the date formats MPD tags commonly carry:
// a bare year, year-month, or a full date.
func parseReleaseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
