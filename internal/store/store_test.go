package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), "sqlite")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestCarePlans(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if _, err := s.GetCarePlan("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SaveCarePlan("s-1", "first plan"); err != nil {
		t.Fatalf("SaveCarePlan: %v", err)
	}
	if _, err := s.SaveCarePlan("s-1", map[string]interface{}{"steps": []string{"rest"}}); err != nil {
		t.Fatalf("SaveCarePlan overwrite: %v", err)
	}
	plan, err := s.GetCarePlan("s-1")
	if err != nil {
		t.Fatalf("GetCarePlan: %v", err)
	}
	data, ok := plan.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected structured plan, got %#v", plan.Data)
	}
	if steps, _ := data["steps"].([]interface{}); len(steps) != 1 || steps[0] != "rest" {
		t.Fatalf("unexpected plan data %#v", data)
	}
	if plan.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestPatientNotesAndSessions(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	notes, err := s.ListPatientNotes("s-1")
	if err != nil || len(notes) != 0 {
		t.Fatalf("expected no notes, got %v, %v", notes, err)
	}
	for _, text := range []string{"one", "two"} {
		if _, err := s.SavePatientNote("s-1", text); err != nil {
			t.Fatalf("SavePatientNote: %v", err)
		}
	}
	notes, err = s.ListPatientNotes("s-1")
	if err != nil {
		t.Fatalf("ListPatientNotes: %v", err)
	}
	if len(notes) != 2 || notes[0].Text != "one" || notes[1].Text != "two" {
		t.Fatalf("unexpected notes %+v", notes)
	}

	if err := s.SaveSessionData("s-2", map[string]interface{}{"name": "Pat"}); err != nil {
		t.Fatalf("SaveSessionData: %v", err)
	}
	data, err := s.GetSessionData("s-2")
	if err != nil {
		t.Fatalf("GetSessionData: %v", err)
	}
	if m, _ := data.PatientData.(map[string]interface{}); m["name"] != "Pat" {
		t.Fatalf("unexpected session data %#v", data.PatientData)
	}
	if _, err := s.GetSessionData("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ids, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(ids) != 2 || ids[0] != "s-1" || ids[1] != "s-2" {
		t.Fatalf("unexpected sessions %v", ids)
	}
}

func TestAskHistory(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	records := []*AskRecord{
		{SessionID: "s-1", Command: "first", ContentType: "MARKDOWN", Success: true, Format: "sse"},
		{SessionID: "s-2", Command: "second", Success: false, Message: "Session not found", StatusCode: 404},
		{SessionID: "s-1", Command: "third", Success: true, Format: "json"},
	}
	for _, rec := range records {
		if err := s.AppendAskHistory(rec); err != nil {
			t.Fatalf("AppendAskHistory: %v", err)
		}
		if rec.ID == 0 {
			t.Fatalf("expected id to be assigned")
		}
	}

	all, err := s.ListAskHistory("", 2)
	if err != nil {
		t.Fatalf("ListAskHistory: %v", err)
	}
	if len(all) != 2 || all[0].Command != "third" || all[1].StatusCode != 404 {
		t.Fatalf("unexpected history %+v", all)
	}
	forSession, err := s.ListAskHistory("s-1", 0)
	if err != nil {
		t.Fatalf("ListAskHistory session: %v", err)
	}
	if len(forSession) != 2 || forSession[1].Command != "first" || !forSession[1].Success {
		t.Fatalf("unexpected session history %+v", forSession)
	}
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	for i := 0; i < 2; i++ {
		id, err := s.SeedDemoData()
		if err != nil {
			t.Fatalf("SeedDemoData: %v", err)
		}
		if id != DemoSessionID {
			t.Fatalf("id = %q", id)
		}
	}
	notes, err := s.ListPatientNotes(DemoSessionID)
	if err != nil {
		t.Fatalf("ListPatientNotes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 seeded notes, got %d", len(notes))
	}
	plan, err := s.GetCarePlan(DemoSessionID)
	if err != nil {
		t.Fatalf("GetCarePlan: %v", err)
	}
	data := plan.Data.(map[string]interface{})
	if meds, _ := data["medications"].([]interface{}); len(meds) != 2 {
		t.Fatalf("unexpected medications %#v", data["medications"])
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()
	pg := &Store{postgres: true}
	if got := pg.rebind("a=? AND b=?"); got != "a=$1 AND b=$2" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Store{}
	if got := lite.rebind("a=?"); got != "a=?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open("x", "mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPruneAskHistoryBefore(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.AppendAskHistory(&AskRecord{SessionID: "s-1", Command: "x", Success: true}); err != nil {
			t.Fatalf("AppendAskHistory: %v", err)
		}
	}
	removed, err := s.PruneAskHistoryBefore(time.Now().Add(-time.Hour))
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing pruned, got %d %v", removed, err)
	}
	removed, err = s.PruneAskHistoryBefore(time.Now().Add(time.Hour))
	if err != nil || removed != 3 {
		t.Fatalf("expected 3 pruned, got %d %v", removed, err)
	}
	records, err := s.ListAskHistory("", 0)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %v %v", records, err)
	}
}
