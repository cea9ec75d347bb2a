package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore() audit.System {
	return audit.NewMemory(discardLogger(), pagination.Config{DefaultPageSize: 10, MaxPageSize: 50})
}

func ptr[T any](v T) *T { return &v }

func write(t *testing.T, sys audit.System, action audit.Action, target string, at time.Time) *audit.Entry {
	t.Helper()
	e, err := sys.Write(context.Background(), audit.WriteCommand{
		Action:     action,
		Target:     target,
		Outcome:    audit.OutcomeSuccess,
		Actor:      "ana.smith",
		ActorRole:  "analyst",
		Context:    "case workspace",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return e
}

func TestWriteAssignsIdentity(t *testing.T) {
	sys := newStore()
	e, err := sys.Write(context.Background(), audit.WriteCommand{
		Action:  audit.ActionSearch,
		Target:  "356938035643809",
		Outcome: audit.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if e.ID == uuid.Nil {
		t.Error("entry id not assigned")
	}
	if e.TimestampUTC.IsZero() || e.TimestampUTC.Location() != time.UTC {
		t.Errorf("timestamp = %v, want non-zero UTC", e.TimestampUTC)
	}
	if e.Actor != "system" || e.ActorRole != "system" {
		t.Errorf("actor = %s/%s, want system/system", e.Actor, e.ActorRole)
	}
}

func TestWriteValidation(t *testing.T) {
	sys := newStore()

	tests := []struct {
		name string
		cmd  audit.WriteCommand
	}{
		{"unknown action", audit.WriteCommand{Action: "CASE_DELETED", Outcome: audit.OutcomeSuccess}},
		{"unknown outcome", audit.WriteCommand{Action: audit.ActionCaseClosed, Outcome: "MAYBE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Write(context.Background(), tt.cmd)
			if !errors.Is(err, audit.ErrInvalidEntry) {
				t.Errorf("error = %v, want ErrInvalidEntry", err)
			}
		})
	}

	all, _ := sys.All(context.Background(), audit.Filters{})
	if len(all) != 0 {
		t.Errorf("entries after invalid writes = %d, want 0", len(all))
	}
}

func TestFind(t *testing.T) {
	sys := newStore()
	e := write(t, sys, audit.ActionCaseCreated, "CASE-1001", time.Time{})

	got, err := sys.Find(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Target != "CASE-1001" {
		t.Errorf("target = %s, want CASE-1001", got.Target)
	}

	if _, err := sys.Find(context.Background(), uuid.New()); !errors.Is(err, audit.ErrNotFound) {
		t.Errorf("missing entry error = %v, want ErrNotFound", err)
	}
}

func TestEntriesAreImmutableCopies(t *testing.T) {
	sys := newStore()
	details := map[string]any{"reason": "original"}
	e, err := sys.Write(context.Background(), audit.WriteCommand{
		Action:  audit.ActionCaseReopened,
		Target:  "CASE-1001",
		Outcome: audit.OutcomeSuccess,
		Details: details,
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	details["reason"] = "mutated by caller"
	e.Details["reason"] = "mutated by reader"

	got, _ := sys.Find(context.Background(), e.ID)
	if got.Details["reason"] != "original" {
		t.Errorf("stored details = %v, want original", got.Details["reason"])
	}
}

func TestListAndAllOrdering(t *testing.T) {
	sys := newStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	write(t, sys, audit.ActionCaseCreated, "CASE-1001", base)
	write(t, sys, audit.ActionCaseAssigned, "CASE-1001", base.Add(time.Minute))
	write(t, sys, audit.ActionCaseCreated, "CASE-1002", base.Add(2*time.Minute))

	page, err := sys.List(context.Background(), pagination.PageRequest{}, audit.Filters{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
	if page.Data[0].Target != "CASE-1002" {
		t.Errorf("first listed = %s, want newest CASE-1002", page.Data[0].Target)
	}

	all, err := sys.All(context.Background(), audit.Filters{Target: ptr("CASE-1001")})
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("case entries = %d, want 2", len(all))
	}
	if all[0].Action != audit.ActionCaseCreated || all[1].Action != audit.ActionCaseAssigned {
		t.Errorf("chronological order = %s, %s", all[0].Action, all[1].Action)
	}
}

func TestListFilters(t *testing.T) {
	sys := newStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	write(t, sys, audit.ActionCaseCreated, "CASE-1001", base)
	write(t, sys, audit.ActionCaseClosed, "CASE-1001", base.Add(time.Hour))
	write(t, sys, audit.ActionSearch, "356938035643809", base.Add(2*time.Hour))

	tests := []struct {
		name    string
		page    pagination.PageRequest
		filters audit.Filters
		want    int
	}{
		{"action", pagination.PageRequest{}, audit.Filters{Action: ptr("CASE_CLOSED")}, 1},
		{"range", pagination.PageRequest{}, audit.Filters{From: ptr(base.Add(time.Hour)), To: ptr(base.Add(2 * time.Hour))}, 1},
		{"search target", pagination.PageRequest{Search: ptr("case-10")}, audit.Filters{}, 2},
		{"search context", pagination.PageRequest{Search: ptr("workspace")}, audit.Filters{}, 3},
		{"actor", pagination.PageRequest{}, audit.Filters{Actor: ptr("luis.fern")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := sys.List(context.Background(), tt.page, tt.filters)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if page.Total != tt.want {
				t.Errorf("total = %d, want %d", page.Total, tt.want)
			}
		})
	}
}

func TestRecorderWritesOneEntryPerEvent(t *testing.T) {
	sys := newStore()
	bus := events.New(discardLogger())
	bus.Subscribe(audit.Recorder(sys))

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	bus.Publish(context.Background(), events.Event{
		Type:       string(audit.ActionDuplicateDetected),
		Target:     "356938035643809",
		Outcome:    string(audit.OutcomeAutoReject),
		Actor:      "system",
		ActorRole:  "system",
		Details:    map[string]any{"claim_id": 2},
		OccurredAt: at,
	})
	bus.Publish(context.Background(), events.Event{Type: "NOT_AN_ACTION", Outcome: "SUCCESS"})

	all, _ := sys.All(context.Background(), audit.Filters{})
	if len(all) != 1 {
		t.Fatalf("entries = %d, want 1", len(all))
	}
	if all[0].Outcome != audit.OutcomeAutoReject {
		t.Errorf("outcome = %s, want AUTO_REJECT", all[0].Outcome)
	}
	if !all[0].TimestampUTC.Equal(at) {
		t.Errorf("timestamp = %v, want %v", all[0].TimestampUTC, at)
	}
}

func TestClientReportable(t *testing.T) {
	tests := []struct {
		action audit.Action
		want   bool
	}{
		{audit.ActionSearch, true},
		{audit.ActionLogin, true},
		{audit.ActionCaseClosed, false},
		{audit.ActionClaimRecorded, false},
		{"UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.ClientReportable(); got != tt.want {
				t.Errorf("ClientReportable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcomesValid(t *testing.T) {
	for _, o := range audit.Outcomes {
		if !o.Valid() {
			t.Errorf("%s should be valid", o)
		}
	}
	if audit.Outcome("APPROVED").Valid() {
		t.Error("APPROVED should not be a valid outcome")
	}
}
