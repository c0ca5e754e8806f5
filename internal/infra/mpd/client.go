// Package mpd provides a wrapper around the gompd MPD client and a song
// source backed by the MPD database.
package mpd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// Client wraps the MPD client with reconnection logic.
type Client struct {
	mu       sync.RWMutex
	client   *mpd.Client
	watcher  *mpd.Watcher
	host     string
	port     int
	password string
}

// NewClient creates a new MPD client wrapper.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

// Connect establishes connection to MPD.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked()
}

// connectLocked establishes connection (must hold lock).
func (c *Client) connectLocked() error {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := mpd.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected checks connection and reconnects if needed.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return c.connectLocked()
	}

	if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		c.client.Close()
		c.client = nil
		return c.connectLocked()
	}

	return nil
}

// Close closes the MPD connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Ping checks if the connection is alive.
func (c *Client) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return c.client.Ping()
}

// Stats returns MPD database statistics.
func (c *Client) Stats() (mpd.Attrs, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.Stats()
}

// ListAllSongs returns every song in the MPD database.
func (c *Client) ListAllSongs() ([]mpd.Attrs, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	songs, err := c.client.ListAllInfo("/")
	if err != nil {
		return nil, fmt.Errorf("failed to list MPD database: %w", err)
	}
	return songs, nil
}

// ListStoredPlaylists returns the names of MPD's stored playlists.
func (c *Client) ListStoredPlaylists() ([]string, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// AttrsList("playlist") tells the parser each entry starts with "playlist:" key
	attrs, err := c.client.Command("listplaylists").AttrsList("playlist")
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var names []string
	for _, attr := range attrs {
		if name := attr["playlist"]; name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// PlaylistContents returns the song URIs of a stored playlist in order.
func (c *Client) PlaylistContents(name string) ([]string, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// AttrsList("file") tells the parser each song starts with "file:" key
	attrs, err := c.client.Command("listplaylistinfo %s", name).AttrsList("file")
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist %s: %w", name, err)
	}

	var uris []string
	for _, attr := range attrs {
		if uri := attr["file"]; uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

// Stickers returns the value of the named sticker for every song carrying
// it, keyed by song URI. MPD reports stickers as "name=value" pairs.
func (c *Client) Stickers(name string) (map[string]string, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	attrs, err := c.client.Command("sticker find song %s %s", "/", name).AttrsList("file")
	if err != nil {
		return nil, fmt.Errorf("failed to find stickers %s: %w", name, err)
	}

	values := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		uri := attr["file"]
		sticker := attr["sticker"]
		if uri == "" || sticker == "" {
			continue
		}
		if eq := strings.IndexByte(sticker, '='); eq >= 0 {
			values[uri] = sticker[eq+1:]
		}
	}
	return values, nil
}

// SetSticker writes a sticker value on a song.
func (c *Client) SetSticker(uri, name, value string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.client.Command("sticker set song %s %s %s", uri, name, value).OK(); err != nil {
		return fmt.Errorf("failed to set sticker %s on %s: %w", name, uri, err)
	}
	return nil
}

// Watch starts watching for MPD subsystem changes.
// Returns a channel that receives subsystem names when they change.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	watcher, err := mpd.NewWatcher("tcp", addr, c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	ch := make(chan string, 10)

	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-watcher.Event:
				if !ok {
					return
				}
				ch <- subsystem
			case err := <-watcher.Error:
				log.Error().Err(err).Msg("MPD watcher error")
				time.Sleep(time.Second)
			}
		}
	}()

	return ch, nil
}
