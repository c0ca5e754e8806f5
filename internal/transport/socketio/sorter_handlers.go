package socketio

import (
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/sorter"
)

// registerSorterHandlers registers interactive ranking sessions for one
// connection.
func (s *Server) registerSorterHandlers(client *socket.Socket) {
	client.On("sorter:start", func(args ...any) {
		s.handleSorterStart(client, args...)
	})

	client.On("sorter:pick", func(args ...any) {
		s.handleSorterPick(client, args...)
	})

	client.On("sorter:state", func(args ...any) {
		s.handleSorterState(client, args...)
	})

	client.On("sorter:cancel", func(args ...any) {
		s.handleSorterCancel(args...)
	})
}

// handleSorterStart begins a pairwise comparison session. Items may be
// given inline or as a library collection to pull songs from.
func (s *Server) handleSorterStart(client *socket.Socket, args ...any) {
	if s.sorter == nil {
		return
	}

	var payload map[string]interface{}
	if len(args) > 0 {
		payload, _ = args[0].(map[string]interface{})
	}

	items := sorterItems(payload)
	if items == nil {
		items = s.collectionItems(payload)
	}

	state, err := s.sorter.Start(items)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to start sorter session")
		client.Emit("pushSorterError", map[string]string{"error": err.Error()})
		return
	}

	log.Info().
		Str("sessionId", state.SessionID).
		Int("items", state.ItemCount).
		Msg("Sorter session started")

	client.Emit("pushSorterState", state)
}

func (s *Server) handleSorterPick(client *socket.Socket, args ...any) {
	if s.sorter == nil {
		return
	}

	sessionID, winnerID := "", ""
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			sessionID, _ = payload["sessionId"].(string)
			winnerID, _ = payload["winnerId"].(string)
		}
	}

	state, err := s.sorter.Pick(sessionID, winnerID)
	if err != nil {
		log.Debug().Err(err).Str("sessionId", sessionID).Msg("Sorter pick rejected")
		client.Emit("pushSorterError", map[string]string{"error": err.Error()})
		return
	}

	client.Emit("pushSorterState", state)
}

func (s *Server) handleSorterState(client *socket.Socket, args ...any) {
	if s.sorter == nil {
		return
	}

	sessionID := ""
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			sessionID, _ = payload["sessionId"].(string)
		}
	}

	state, err := s.sorter.Get(sessionID)
	if err != nil {
		client.Emit("pushSorterError", map[string]string{"error": err.Error()})
		return
	}

	client.Emit("pushSorterState", state)
}

func (s *Server) handleSorterCancel(args ...any) {
	if s.sorter == nil {
		return
	}

	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			if sessionID, ok := payload["sessionId"].(string); ok {
				s.sorter.Cancel(sessionID)
			}
		}
	}
}

// sorterItems extracts inline items from the payload, nil when absent.
func sorterItems(payload map[string]interface{}) []sorter.Item {
	if payload == nil {
		return nil
	}
	raw, ok := payload["items"].([]interface{})
	if !ok {
		return nil
	}

	items := make([]sorter.Item, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		label, _ := m["label"].(string)
		items = append(items, sorter.Item{ID: id, Label: label})
	}
	return items
}

// collectionItems builds sorter items from a container's songs, so a
// client can rank an album or playlist without listing songs first.
func (s *Server) collectionItems(payload map[string]interface{}) []sorter.Item {
	if payload == nil {
		return nil
	}
	kind, _ := payload["withinKind"].(string)
	id, _ := payload["withinId"].(string)
	if kind == "" || id == "" {
		return nil
	}

	entity, ok := s.library.Resolve(catalog.EntityKind(kind), id)
	if !ok {
		return nil
	}

	var items []sorter.Item
	for _, r := range rankedSongsOf(entity) {
		song := r.Entity.Song
		if song == nil {
			continue
		}
		items = append(items, sorter.Item{ID: song.ID, Label: song.Title})
	}
	return items
}
