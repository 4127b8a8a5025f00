package server_test

import (
	"testing"
	"time"

	"github.com/echoroom/echoroom/internal/server"
)

func TestUpsertOnConnectAssignsDefaults(t *testing.T) {
	r := server.NewRegistry()

	s, err := r.UpsertOnConnect("a1b2c3d4e5", "10.0.0.1:55000")
	if err != nil {
		t.Fatalf("UpsertOnConnect err: %v", err)
	}

	if s.ID != "a1b2c3d4e5" {
		t.Errorf("unexpected id %q", s.ID)
	}
	if s.Username != "User_a1b2c3" {
		t.Errorf("unexpected default username %q", s.Username)
	}
	if s.RemoteAddress != "10.0.0.1:55000" {
		t.Errorf("unexpected remote address %q", s.RemoteAddress)
	}
	if s.ConnectedAt.IsZero() || s.LastSeen.IsZero() {
		t.Error("timestamps not set at connect")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestUpsertOnConnectRejectsDuplicateID(t *testing.T) {
	r := server.NewRegistry()

	if _, err := r.UpsertOnConnect("dup", "10.0.0.1:1"); err != nil {
		t.Fatalf("first insert err: %v", err)
	}
	if _, err := r.UpsertOnConnect("dup", "10.0.0.2:2"); err == nil {
		t.Fatal("expected error for duplicate id")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestDefaultUsernameShortID(t *testing.T) {
	if got := server.DefaultUsername("abc"); got != "User_abc" {
		t.Errorf("DefaultUsername(abc) = %q", got)
	}
}

func TestUpdateUsernameTrimsInput(t *testing.T) {
	r := server.NewRegistry()
	if _, err := r.UpsertOnConnect("c1", "addr"); err != nil {
		t.Fatal(err)
	}

	s, ok := r.UpdateUsername("c1", "  Ada  ")
	if !ok {
		t.Fatal("UpdateUsername reported missing session")
	}
	if s.Username != "Ada" {
		t.Errorf("username = %q, want Ada", s.Username)
	}
}

func TestUpdateUsernameEmptyRetainsExisting(t *testing.T) {
	r := server.NewRegistry()
	if _, err := r.UpsertOnConnect("c1", "addr"); err != nil {
		t.Fatal(err)
	}
	r.UpdateUsername("c1", "Ada")

	s, ok := r.UpdateUsername("c1", "   ")
	if !ok {
		t.Fatal("UpdateUsername reported missing session")
	}
	if s.Username != "Ada" {
		t.Errorf("username = %q, want Ada retained", s.Username)
	}
}

func TestUpdateUsernameMissingSession(t *testing.T) {
	r := server.NewRegistry()
	if _, ok := r.UpdateUsername("ghost", "Ada"); ok {
		t.Fatal("expected missing session")
	}
}

func TestTouchLastSeen(t *testing.T) {
	r := server.NewRegistry()
	s, err := r.UpsertOnConnect("c1", "addr")
	if err != nil {
		t.Fatal(err)
	}

	before := s.LastSeen
	time.Sleep(5 * time.Millisecond)
	r.TouchLastSeen("c1")

	if !s.LastSeen.After(before) {
		t.Error("LastSeen not advanced by touch")
	}

	// Absent id is a no-op, not a panic.
	r.TouchLastSeen("ghost")
}

func TestRemoveReturnsRecordAndIsIdempotent(t *testing.T) {
	r := server.NewRegistry()
	if _, err := r.UpsertOnConnect("c1", "addr"); err != nil {
		t.Fatal(err)
	}
	r.UpdateUsername("c1", "Ada")

	s, ok := r.Remove("c1")
	if !ok {
		t.Fatal("Remove reported missing session")
	}
	if s.Username != "Ada" {
		t.Errorf("removed record username = %q, want Ada", s.Username)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after remove, want 0", r.Count())
	}

	if _, ok := r.Remove("c1"); ok {
		t.Fatal("second Remove should be a no-op")
	}
}

func TestSnapshotInsertionOrder(t *testing.T) {
	r := server.NewRegistry()
	for _, id := range []string{"first1", "second", "third1"} {
		if _, err := r.UpsertOnConnect(id, "addr"); err != nil {
			t.Fatal(err)
		}
	}
	r.Remove("second")
	if _, err := r.UpsertOnConnect("fourth", "addr"); err != nil {
		t.Fatal(err)
	}

	snapshot := r.Snapshot()
	want := []string{"first1", "third1", "fourth"}
	if len(snapshot) != len(want) {
		t.Fatalf("snapshot has %d sessions, want %d", len(snapshot), len(want))
	}
	for i, id := range want {
		if snapshot[i].ID != id {
			t.Errorf("snapshot[%d].ID = %q, want %q", i, snapshot[i].ID, id)
		}
	}
}

func TestCountTracksConnectionSequence(t *testing.T) {
	r := server.NewRegistry()

	open := 0
	for i, id := range []string{"s1", "s2", "s3", "s4"} {
		if _, err := r.UpsertOnConnect(id, "addr"); err != nil {
			t.Fatal(err)
		}
		open++
		if r.Count() != open {
			t.Fatalf("after connect %d: Count() = %d, want %d", i, r.Count(), open)
		}
	}
	for _, id := range []string{"s2", "s4"} {
		r.Remove(id)
		open--
		if r.Count() != open {
			t.Fatalf("after removing %s: Count() = %d, want %d", id, r.Count(), open)
		}
	}
}
