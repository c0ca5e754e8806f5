package sorter

import (
	"testing"
)

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Label: "Song " + id}
	}
	return out
}

// drive answers every comparison using the desired final order: the item
// appearing earlier in want wins.
func drive(t *testing.T, svc *Service, st *State, want []string) *State {
	t.Helper()
	pos := make(map[string]int, len(want))
	for i, id := range want {
		pos[id] = i
	}
	for !st.Done {
		if st.Pair == nil {
			t.Fatal("session not done but no pair offered")
		}
		winner := st.Pair.Left.ID
		if pos[st.Pair.Right.ID] < pos[st.Pair.Left.ID] {
			winner = st.Pair.Right.ID
		}
		var err error
		st, err = svc.Pick(st.SessionID, winner)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
	}
	return st
}

func TestSessionProducesChosenOrder(t *testing.T) {
	svc := NewService()
	st, err := svc.Start(items("a", "b", "c", "d", "e"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Done {
		t.Fatal("five items should require comparisons")
	}

	want := []string{"c", "a", "e", "b", "d"}
	st = drive(t, svc, st, want)

	if len(st.Result) != len(want) {
		t.Fatalf("result length = %d, want %d", len(st.Result), len(want))
	}
	for i, id := range want {
		if st.Result[i].ID != id {
			t.Errorf("result[%d] = %q, want %q", i, st.Result[i].ID, id)
		}
	}
	if st.Comparisons == 0 || st.Comparisons > 10 {
		t.Errorf("comparisons = %d, outside merge sort bounds for 5 items", st.Comparisons)
	}
}

func TestSessionTrivialCollections(t *testing.T) {
	svc := NewService()

	st, err := svc.Start(nil)
	if err != nil {
		t.Fatalf("Start empty: %v", err)
	}
	if !st.Done || len(st.Result) != 0 {
		t.Errorf("empty collection should finish immediately with no result")
	}

	st, err = svc.Start(items("only"))
	if err != nil {
		t.Fatalf("Start single: %v", err)
	}
	if !st.Done || len(st.Result) != 1 || st.Result[0].ID != "only" {
		t.Errorf("single item should finish immediately ranked first, got %+v", st)
	}
}

func TestPickRejectsOutsiders(t *testing.T) {
	svc := NewService()
	st, err := svc.Start(items("a", "b"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Pick(st.SessionID, "z"); err == nil {
		t.Error("expected error picking an item outside the current pair")
	}
	if _, err := svc.Pick("no-such-session", "a"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestPickAfterDone(t *testing.T) {
	svc := NewService()
	st, err := svc.Start(items("a", "b"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err = svc.Pick(st.SessionID, "b")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if !st.Done {
		t.Fatal("two items need exactly one comparison")
	}
	if st.Result[0].ID != "b" || st.Result[1].ID != "a" {
		t.Errorf("result = %v, want winner first", st.Result)
	}
	if _, err := svc.Pick(st.SessionID, "a"); err == nil {
		t.Error("expected error picking on a finished session")
	}
}

func TestStartRejectsDuplicates(t *testing.T) {
	svc := NewService()
	if _, err := svc.Start(items("a", "a")); err == nil {
		t.Error("expected error for duplicate ids")
	}
	if _, err := svc.Start([]Item{{ID: "", Label: "x"}}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestCancelAndGet(t *testing.T) {
	svc := NewService()
	st, err := svc.Start(items("a", "b", "c"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Get(st.SessionID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	svc.Cancel(st.SessionID)
	if _, err := svc.Get(st.SessionID); err == nil {
		t.Error("expected error after Cancel")
	}
}
