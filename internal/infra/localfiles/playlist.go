package localfiles

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

// readPlaylist parses an .m3u/.m3u8 playlist into song IDs. Entries are
// resolved relative to the playlist's directory; lines pointing outside
// the music root or at URLs are dropped.
func (s *Source) readPlaylist(path string) (catalog.PlaylistInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.PlaylistInfo{}, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := catalog.PlaylistInfo{
		ID:   catalog.PlaylistID(name),
		Name: name,
	}

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "://") {
			continue
		}

		entry := filepath.FromSlash(line)
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(dir, entry)
		}
		rel, err := filepath.Rel(s.root, entry)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		info.SongIDs = append(info.SongIDs, catalog.SongID(filepath.ToSlash(rel)))
	}
	if err := scanner.Err(); err != nil {
		return catalog.PlaylistInfo{}, err
	}
	return info, nil
}
