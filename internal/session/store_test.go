package session

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/sparkyed/sparky-engine/internal/phase"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateInitializesFreshSession(t *testing.T) {
	s := tempStore(t)

	snap, err := s.GetOrCreate("kid-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if snap.SessionID != "kid-1" {
		t.Fatalf("expected kid-1, got %s", snap.SessionID)
	}
	if got := snap.Checklist.CurrentMajor(); got != phase.StepGotName {
		t.Fatalf("fresh session at %s, want %s", got, phase.StepGotName)
	}
	if len(snap.Scratch) != 0 || len(snap.Transcript) != 0 {
		t.Fatal("fresh session has non-empty scratch or transcript")
	}

	// First contact persists; a second load finds the row.
	again, err := s.GetOrCreate("kid-1")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again.CreatedAt.IsZero() {
		t.Fatal("created_at not persisted")
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	s := tempStore(t)

	snap, _ := s.GetOrCreate("kid-2")
	snap.Checklist.MarkMajorDone(phase.StepGotName)
	snap.Checklist.MarkSubDone(phase.SubIntroAsked)
	snap.Scratch["child_name"] = "Timmy"
	snap.Transcript = append(snap.Transcript,
		Turn{Role: RoleChild, Text: "my name is timmy"},
		Turn{Role: RoleAgent, Text: "Nice to meet you, Timmy!"},
	)

	if err := s.Save("kid-2", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetOrCreate("kid-2")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cur := got.Checklist.CurrentMajor(); cur != phase.StepPickedTopic {
		t.Fatalf("expected %s, got %s", phase.StepPickedTopic, cur)
	}
	if !got.Checklist.SubDone(phase.SubIntroAsked) {
		t.Fatal("sub-step flag lost")
	}
	if got.Scratch["child_name"] != "Timmy" {
		t.Fatalf("scratch lost: %v", got.Scratch)
	}
	if len(got.Transcript) != 2 {
		t.Fatalf("expected 2 transcript turns, got %d", len(got.Transcript))
	}
	if got.Transcript[0].Role != RoleChild || got.Transcript[1].Role != RoleAgent {
		t.Fatalf("transcript order broken: %+v", got.Transcript)
	}
}

func TestSaveOverwritesWholeRecord(t *testing.T) {
	s := tempStore(t)

	snap, _ := s.GetOrCreate("kid-3")
	snap.Transcript = []Turn{{Role: RoleChild, Text: "one"}, {Role: RoleAgent, Text: "two"}}
	if err := s.Save("kid-3", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snap.Transcript = []Turn{{Role: RoleChild, Text: "only"}}
	if err := s.Save("kid-3", snap); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, _ := s.GetOrCreate("kid-3")
	if len(got.Transcript) != 1 || got.Transcript[0].Text != "only" {
		t.Fatalf("expected replaced transcript, got %+v", got.Transcript)
	}
}

func TestResetDropsSession(t *testing.T) {
	s := tempStore(t)

	snap, _ := s.GetOrCreate("kid-4")
	snap.Checklist.MarkMajorDone(phase.StepGotName)
	snap.Scratch["child_name"] = "Zoe"
	s.Save("kid-4", snap)

	if err := s.Reset("kid-4"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	fresh, err := s.GetOrCreate("kid-4")
	if err != nil {
		t.Fatalf("GetOrCreate after reset: %v", err)
	}
	if got := fresh.Checklist.CurrentMajor(); got != phase.StepGotName {
		t.Fatalf("expected fresh session at %s, got %s", phase.StepGotName, got)
	}
	if len(fresh.Scratch) != 0 {
		t.Fatalf("scratch survived reset: %v", fresh.Scratch)
	}
}

func TestResetUnknownSessionIsNoOp(t *testing.T) {
	s := tempStore(t)
	if err := s.Reset("never-seen"); err != nil {
		t.Fatalf("Reset unknown: %v", err)
	}
	if err := s.Reset("never-seen"); err != nil {
		t.Fatalf("Reset twice: %v", err)
	}
}

func TestAcquireSerializesSameSession(t *testing.T) {
	s := tempStore(t)

	var order []int
	var mu sync.Mutex
	record := func(n int) {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	}

	unlock := s.Acquire("kid-5")
	done := make(chan struct{})
	go func() {
		u := s.Acquire("kid-5")
		record(2)
		u()
		close(done)
	}()

	record(1)
	unlock()
	<-done

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected serialized order [1 2], got %v", order)
	}
}

func TestAcquireIndependentAcrossSessions(t *testing.T) {
	s := tempStore(t)

	unlockA := s.Acquire("a")
	defer unlockA()

	// Must not block on a's lock.
	done := make(chan struct{})
	go func() {
		u := s.Acquire("b")
		u()
		close(done)
	}()
	<-done
}

func TestInMemoryStore(t *testing.T) {
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore(:memory:): %v", err)
	}
	defer s.Close()

	if _, err := s.GetOrCreate("kid-6"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
}
