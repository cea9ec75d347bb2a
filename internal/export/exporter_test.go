package export_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/cases"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/internal/export"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/lifecycle"
	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/routes"
	"github.com/JaimeStill/cct/pkg/storage"
)

var generated = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

type blob struct {
	body        string
	contentType string
}

type memoryStore struct {
	mu    sync.Mutex
	blobs map[string]blob
	fail  bool
}

func (m *memoryStore) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memoryStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if m.fail {
		return errors.New("connection reset")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob{body: string(data), contentType: contentType}
	return nil
}

func (m *memoryStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(b.body)), nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

type fixture struct {
	export export.System
	cases  cases.System
	ledger claims.System
	audit  audit.System
	bus    events.System
}

var manager = actor.Actor{ID: "priya.nair", Role: actor.RoleManager}

func setup(t *testing.T, store storage.System) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.New(logger)
	cfg := pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}
	trail := audit.NewMemory(logger, cfg)
	bus.Subscribe(audit.Recorder(trail))

	ledger := claims.New(bus, logger, claims.Options{})
	cs := cases.New(bus, logger, cases.Options{Claims: ledger, Pagination: cfg})

	ex := export.New(cs, ledger, trail, bus, logger, export.Options{
		Storage:       store,
		StorageConfig: &storage.Config{KeyPrefix: "exports"},
		Now:           func() time.Time { return generated },
	})
	return &fixture{export: ex, cases: cs, ledger: ledger, audit: trail, bus: bus}
}

func (f *fixture) openCase(t *testing.T) *cases.Case {
	t.Helper()
	ctx := actor.WithActor(context.Background(), manager)
	cl, err := f.ledger.Record(ctx, claims.RecordCommand{IMEI: "A", Amount: decimal.NewFromInt(250)})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	c, err := f.cases.Create(ctx, cases.CreateCommand{Identity: "A", LinkedClaimIDs: []int64{cl.ID}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.cases.AddNote(ctx, c.ID, cases.NoteCommand{Content: "reviewed"}); err != nil {
		t.Fatalf("note failed: %v", err)
	}
	return c
}

func actions(entries []audit.Entry) []audit.Action {
	out := make([]audit.Action, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

func TestCaseReportWithoutStorage(t *testing.T) {
	f := setup(t, nil)
	c := f.openCase(t)
	ctx := actor.WithActor(context.Background(), manager)

	report, err := f.export.CaseReport(ctx, c.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if report.GeneratedBy != manager.ID || !report.GeneratedAt.Equal(generated) {
		t.Errorf("generated by %s at %v", report.GeneratedBy, report.GeneratedAt)
	}
	if len(report.Claims) != 1 || report.Claims[0].IMEI != "A" {
		t.Errorf("claims = %+v, want the linked claim", report.Claims)
	}
	want := []audit.Action{audit.ActionCaseCreated, audit.ActionCaseNoteAdded}
	if diff := cmp.Diff(want, actions(report.Trail)); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
	if report.Artifacts != nil {
		t.Errorf("artifacts = %v, want none without storage", report.Artifacts)
	}

	target := c.ID
	after, _ := f.audit.All(ctx, audit.Filters{Target: &target})
	if last := after[len(after)-1]; last.Action != audit.ActionCaseExported || last.Outcome != audit.OutcomeSuccess {
		t.Errorf("last entry = %s/%s, want CASE_EXPORTED/SUCCESS", last.Action, last.Outcome)
	}

	unchanged, _ := f.cases.Find(c.ID)
	if unchanged.Version != report.Case.Version {
		t.Errorf("export changed the case version from %d to %d", report.Case.Version, unchanged.Version)
	}
}

func TestCaseReportMissing(t *testing.T) {
	f := setup(t, nil)

	if _, err := f.export.CaseReport(context.Background(), "CASE-9"); !errors.Is(err, cases.ErrNotFound) {
		t.Errorf("err = %v, want cases.ErrNotFound", err)
	}
}

func TestCaseReportUploadsArtifacts(t *testing.T) {
	store := &memoryStore{blobs: make(map[string]blob)}
	f := setup(t, store)
	c := f.openCase(t)

	report, err := f.export.CaseReport(actor.WithActor(context.Background(), manager), c.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	base := "exports/cases/" + c.ID + "/20260304T103000Z"
	if diff := cmp.Diff([]string{base + ".json", base + ".csv"}, report.Artifacts); diff != "" {
		t.Fatalf("artifacts mismatch (-want +got):\n%s", diff)
	}

	js := store.blobs[base+".json"]
	if js.contentType != "application/json" || !strings.Contains(js.body, `"audit_trail"`) {
		t.Errorf("json artifact = %s %q", js.contentType, js.body)
	}

	csv := store.blobs[base+".csv"]
	lines := strings.Split(strings.TrimSpace(csv.body), "\n")
	if csv.contentType != "text/csv" || len(lines) != 3 || !strings.HasPrefix(lines[0], "id,timestamp_utc,action") {
		t.Errorf("csv artifact = %s %q", csv.contentType, csv.body)
	}
}

func TestCaseReportUploadFailure(t *testing.T) {
	store := &memoryStore{blobs: make(map[string]blob), fail: true}
	f := setup(t, store)
	c := f.openCase(t)
	ctx := actor.WithActor(context.Background(), manager)

	if _, err := f.export.CaseReport(ctx, c.ID); !errors.Is(err, export.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}

	action := string(audit.ActionCaseExported)
	entries, _ := f.audit.All(ctx, audit.Filters{Action: &action})
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeFailure {
		t.Errorf("export entries = %+v, want one FAILURE", entries)
	}
}

func TestAuditReport(t *testing.T) {
	f := setup(t, nil)
	f.openCase(t)
	ctx := actor.WithActor(context.Background(), manager)

	action := string(audit.ActionCaseNoteAdded)
	report, err := f.export.AuditReport(ctx, audit.Filters{Action: &action})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if report.Count != 1 || report.Entries[0].Action != audit.ActionCaseNoteAdded {
		t.Errorf("report = %+v", report)
	}

	exported := string(audit.ActionAuditExported)
	if entries, _ := f.audit.All(ctx, audit.Filters{Action: &exported}); len(entries) != 1 {
		t.Errorf("audit export entries = %d, want 1", len(entries))
	}
}

func TestWriteTrailCSV(t *testing.T) {
	var buf bytes.Buffer
	entries := []audit.Entry{{
		TimestampUTC: generated,
		Action:       audit.ActionSearch,
		Outcome:      audit.OutcomeSuccess,
		Target:       "A",
		Actor:        "ana.smith",
		ActorRole:    "analyst",
		Context:      "device search, by imei",
	}}

	if err := export.WriteTrailCSV(&buf, entries); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "id,timestamp_utc,action,outcome,target,actor,actor_role,context\n" +
		"00000000-0000-0000-0000-000000000000,2026-03-04T10:30:00Z,SEARCH,SUCCESS,A,ana.smith,analyst,\"device search, by imei\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerRequiresExportRole(t *testing.T) {
	f := setup(t, nil)
	c := f.openCase(t)

	mux := http.NewServeMux()
	routes.Register(mux, f.export.Handler().Routes())
	srv := actor.Middleware()(mux)

	tests := []struct {
		name        string
		role        string
		path        string
		want        int
		contentType string
	}{
		{"analyst denied", "analyst", "/exports/cases/" + c.ID, http.StatusForbidden, "application/json"},
		{"manager case", "manager", "/exports/cases/" + c.ID, http.StatusOK, "application/json"},
		{"manager case csv", "manager", "/exports/cases/" + c.ID + "?format=csv", http.StatusOK, "text/csv"},
		{"admin audit", "admin", "/exports/audit?action=CASE_CREATED", http.StatusOK, "application/json"},
		{"missing case", "admin", "/exports/cases/CASE-1", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set(actor.HeaderID, tt.role+".user")
			req.Header.Set(actor.HeaderRole, tt.role)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
				t.Errorf("content type = %s, want %s", got, tt.contentType)
			}
		})
	}

	denied := string(audit.ActionPermissionDenied)
	if entries, _ := f.audit.All(context.Background(), audit.Filters{Action: &denied}); len(entries) != 1 {
		t.Errorf("permission denied entries = %d, want 1", len(entries))
	}
}
