// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/history"
	"github.com/resonatalabs/resonata-backend/internal/domain/ranking"
	"github.com/resonatalabs/resonata-backend/internal/domain/sorter"
	"github.com/resonatalabs/resonata-backend/internal/infra/rankwork"
)

// Library is the catalog surface the server needs. Both *catalog.Library
// and *catalog.CachedLibrary satisfy it.
type Library interface {
	Snapshot() *catalog.Snapshot
	Resolve(kind catalog.EntityKind, id string) (catalog.Entity, bool)
	Refresh(ctx context.Context) error
}

// connState holds per-connection listing state: one sort state per
// collection kind, so toggling in one listing never disturbs another.
type connState struct {
	mu    sync.Mutex
	sorts map[catalog.EntityKind]*ranking.SortState
}

func newConnState() *connState {
	return &connState{sorts: make(map[catalog.EntityKind]*ranking.SortState)}
}

// sortFor resolves the connection's sort state for a collection, creating
// it at the play-count default on first use. A valid selection is applied
// under the lock; the returned copy is safe to read without it.
func (c *connState) sortFor(kind catalog.EntityKind, sel ranking.Key) ranking.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sorts[kind]
	if !ok {
		s := ranking.NewSortState(ranking.KeyPlayCount)
		state = &s
		c.sorts[kind] = state
	}
	if sel != "" && validKey(sel) {
		state.Select(sel)
	}
	return *state
}

// Server handles Socket.io connections and events.
type Server struct {
	io      *socket.Server
	library Library
	ranks   *rankwork.Worker
	sorter  *sorter.Service
	history *history.Store
	limiter *ConnectionLimiter

	mu      sync.RWMutex
	clients map[string]*socket.Socket
	states  map[string]*connState
}

// Options configures the Socket.io server.
type Options struct {
	// MaxExternalClients caps concurrent non-localhost connections.
	MaxExternalClients int
}

// NewServer creates a new Socket.io server.
func NewServer(library Library, ranks *rankwork.Worker, sorterSvc *sorter.Service, historyStore *history.Store, opts Options) (*Server, error) {
	serverOpts := socket.DefaultServerOptions()
	serverOpts.SetPingTimeout(20 * time.Second)
	serverOpts.SetPingInterval(25 * time.Second)
	serverOpts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	maxExternal := opts.MaxExternalClients
	if maxExternal <= 0 {
		maxExternal = 8
	}

	s := &Server{
		io:      socket.NewServer(nil, serverOpts),
		library: library,
		ranks:   ranks,
		sorter:  sorterSvc,
		history: historyStore,
		limiter: NewConnectionLimiter(maxExternal),
		clients: make(map[string]*socket.Socket),
		states:  make(map[string]*connState),
	}

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers the connection handler.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		remoteIP := ""
		if client.Handshake() != nil {
			remoteIP = client.Handshake().Address
		}
		_, evicted := s.limiter.TryAdd(clientID, remoteIP)
		if evicted != "" {
			s.disconnectClient(evicted)
		}

		log.Info().Str("id", clientID).Str("ip", remoteIP).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.states[clientID] = newConnState()
		s.mu.Unlock()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			delete(s.states, clientID)
			s.mu.Unlock()
		})

		s.registerLibraryHandlers(client, clientID)
		s.registerRankingHandlers(client)
		s.registerSorterHandlers(client)
	})
}

// stateFor returns the per-connection state, or a fresh one if the client
// is already gone.
func (s *Server) stateFor(clientID string) *connState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[clientID]; ok {
		return state
	}
	return newConnState()
}

// disconnectClient force-closes a tracked connection.
func (s *Server) disconnectClient(clientID string) {
	s.mu.RLock()
	client, ok := s.clients[clientID]
	s.mu.RUnlock()

	if ok {
		log.Info().Str("id", clientID).Msg("Evicting connection over client limit")
		client.Disconnect(true)
	}
}

// BroadcastLibraryUpdated notifies all clients that the snapshot changed.
func (s *Server) BroadcastLibraryUpdated() {
	snap := s.library.Snapshot()
	payload := map[string]interface{}{}
	if snap != nil {
		payload["songCount"] = len(snap.Songs)
		payload["albumCount"] = len(snap.Albums)
		payload["artistCount"] = len(snap.Artists)
		payload["genreCount"] = len(snap.Genres)
		payload["playlistCount"] = len(snap.Playlists)
		payload["builtAt"] = snap.BuiltAt
	}

	s.io.Emit("pushLibraryUpdated", payload)

	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()
	log.Debug().Int("clients", clientCount).Msg("Broadcast library update")
}

// BroadcastRankResults pushes a completed batch of contextual ranks.
// Wire it to the rank worker via rankwork.WithPublishFunc.
func (s *Server) BroadcastRankResults(results []rankwork.Result) {
	if len(results) == 0 {
		return
	}
	s.io.Emit("pushContextualRanks", results)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.io.Close(nil)
	return nil
}
