package socketio

import (
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/infra/rankwork"
)

// ContextualRankReply is the answer to a contextual rank request. Pending
// replies carry no rank; the computed result is pushed to all clients once
// the worker has processed its batch.
type ContextualRankReply struct {
	rankwork.Request
	Pending bool `json:"pending"`
	Found   bool `json:"found"`
	Rank    int  `json:"rank,omitempty"`
	Total   int  `json:"total,omitempty"`
}

// registerRankingHandlers registers contextual rank lookups for one
// connection.
func (s *Server) registerRankingHandlers(client *socket.Socket) {
	client.On("rank:contextual", func(args ...any) {
		s.handleContextualRank(client, args...)
	})

	client.On("rank:batch", func(args ...any) {
		s.handleRankBatch(client, args...)
	})
}

// handleContextualRank answers from the worker's computed results when
// possible, otherwise queues the request and replies pending.
func (s *Server) handleContextualRank(client *socket.Socket, args ...any) {
	if s.ranks == nil {
		return
	}

	req, ok := parseRankRequest(args...)
	if !ok {
		log.Warn().Msg("rank:contextual received with incomplete payload")
		client.Emit("pushContextualRank", ContextualRankReply{Request: req})
		return
	}

	client.Emit("pushContextualRank", s.rankReply(req))
}

// handleRankBatch handles a list of rank requests in one round trip.
func (s *Server) handleRankBatch(client *socket.Socket, args ...any) {
	if s.ranks == nil || len(args) == 0 {
		return
	}

	items, ok := args[0].([]interface{})
	if !ok {
		log.Warn().Msg("rank:batch received with non-array payload")
		return
	}

	replies := make([]ContextualRankReply, 0, len(items))
	for _, item := range items {
		payload, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		req, ok := rankRequestFromPayload(payload)
		if !ok {
			continue
		}
		replies = append(replies, s.rankReply(req))
	}

	client.Emit("pushContextualRanks", replies)
}

// rankReply resolves one request against the worker, enqueueing it when
// no computed result exists yet.
func (s *Server) rankReply(req rankwork.Request) ContextualRankReply {
	if res, ok := s.ranks.Lookup(req); ok {
		return ContextualRankReply{
			Request: req,
			Found:   res.Found,
			Rank:    res.Rank,
			Total:   res.Total,
		}
	}

	s.ranks.Enqueue(req)
	return ContextualRankReply{Request: req, Pending: true}
}

func parseRankRequest(args ...any) (rankwork.Request, bool) {
	if len(args) == 0 {
		return rankwork.Request{}, false
	}
	payload, ok := args[0].(map[string]interface{})
	if !ok {
		return rankwork.Request{}, false
	}
	return rankRequestFromPayload(payload)
}

func rankRequestFromPayload(payload map[string]interface{}) (rankwork.Request, bool) {
	entityKind, _ := payload["entityKind"].(string)
	entityID, _ := payload["entityId"].(string)
	withinKind, _ := payload["withinKind"].(string)
	withinID, _ := payload["withinId"].(string)

	req := rankwork.Request{
		EntityKind: catalog.EntityKind(entityKind),
		EntityID:   entityID,
		WithinKind: catalog.EntityKind(withinKind),
		WithinID:   withinID,
	}
	if entityKind == "" || entityID == "" || withinKind == "" || withinID == "" {
		return req, false
	}
	return req, true
}
