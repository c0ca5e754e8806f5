package localfiles

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch marks the source stale when audio files or playlists under the
// music directory change. It returns after the watcher is installed and
// runs until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	addDirs := func(root string) {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if werr := watcher.Add(path); werr != nil {
				log.Debug().Err(werr).Str("path", path).Msg("Cannot watch directory")
			}
			return nil
		})
	}
	addDirs(s.root)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if s.relevant(event) {
					log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Music directory changed")
					s.markStale()
				}
				// new directories need their own watch
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						addDirs(event.Name)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Filesystem watcher error")
			}
		}
	}()

	log.Info().Str("dir", s.root).Msg("Watching music directory")
	return nil
}

// relevant reports whether a filesystem event can affect the library.
func (s *Source) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if audioExtensions[ext] || ext == ".m3u" || ext == ".m3u8" {
		return true
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}
