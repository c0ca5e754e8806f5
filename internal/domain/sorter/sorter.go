// Package sorter runs manual re-ranking sessions: an interactive merge
// sort where the user supplies every pairwise comparison, producing a
// hand-made 1-based ordering of a collection.
package sorter

import (
	"fmt"
	"time"
)

// Item is one entry being ranked, carried by ID with a display label.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Pair is the comparison currently awaiting the user's pick.
type Pair struct {
	Left  Item `json:"left"`
	Right Item `json:"right"`
}

// session holds the merge state for one sorting run. Runs are kept
// best-first; picking a winner places it ahead of the loser.
type session struct {
	id          string
	items       map[string]Item
	runs        [][]string
	left, right []string
	li, ri      int
	merged      []string
	done        bool
	result      []string
	comparisons int
	createdAt   time.Time
}

func newSession(id string, items []Item) *session {
	s := &session{
		id:        id,
		items:     make(map[string]Item, len(items)),
		createdAt: time.Now(),
	}
	for _, item := range items {
		s.items[item.ID] = item
		s.runs = append(s.runs, []string{item.ID})
	}
	s.advance()
	return s
}

// advance starts the next merge, or finishes the session when a single run
// remains.
func (s *session) advance() {
	if s.left != nil {
		return
	}
	if len(s.runs) <= 1 {
		s.done = true
		if len(s.runs) == 1 {
			s.result = s.runs[0]
		}
		return
	}
	s.left, s.right = s.runs[0], s.runs[1]
	s.runs = s.runs[2:]
	s.li, s.ri = 0, 0
	s.merged = nil
}

// pair returns the comparison awaiting a pick, nil when the session is done.
func (s *session) pair() *Pair {
	if s.done {
		return nil
	}
	return &Pair{Left: s.items[s.left[s.li]], Right: s.items[s.right[s.ri]]}
}

// pick applies the user's choice of winner for the current pair.
func (s *session) pick(winnerID string) error {
	if s.done {
		return fmt.Errorf("session already finished")
	}

	leftID, rightID := s.left[s.li], s.right[s.ri]
	switch winnerID {
	case leftID:
		s.merged = append(s.merged, leftID)
		s.li++
	case rightID:
		s.merged = append(s.merged, rightID)
		s.ri++
	default:
		return fmt.Errorf("item %q is not part of the current pair", winnerID)
	}
	s.comparisons++

	if s.li == len(s.left) || s.ri == len(s.right) {
		s.merged = append(s.merged, s.left[s.li:]...)
		s.merged = append(s.merged, s.right[s.ri:]...)
		s.runs = append(s.runs, s.merged)
		s.left, s.right, s.merged = nil, nil, nil
		s.advance()
	}
	return nil
}

// State is a snapshot of a session for the transport layer.
type State struct {
	SessionID   string `json:"sessionId"`
	Done        bool   `json:"done"`
	Pair        *Pair  `json:"pair,omitempty"`
	Comparisons int    `json:"comparisons"`
	ItemCount   int    `json:"itemCount"`
	Result      []Item `json:"result,omitempty"`
}

func (s *session) state() *State {
	st := &State{
		SessionID:   s.id,
		Done:        s.done,
		Pair:        s.pair(),
		Comparisons: s.comparisons,
		ItemCount:   len(s.items),
	}
	if s.done {
		st.Result = make([]Item, len(s.result))
		for i, id := range s.result {
			st.Result[i] = s.items[id]
		}
	}
	return st
}
