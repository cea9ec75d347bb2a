package query_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/cct/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "audit_log", "a").
		Project("id", "id").
		Project("action", "action").
		Project("target", "target").
		Project("timestamp_utc", "timestamp")
}

func ptr(s string) *string { return &s }

func TestProjectionMapFrom(t *testing.T) {
	p := testProjection()
	if got, want := p.From(), "public.audit_log a"; got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
	if got, want := p.Table(), "public.audit_log"; got != want {
		t.Errorf("Table() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
		has      bool
	}{
		{"mapped field", "action", "a.action", true},
		{"mapped renamed", "timestamp", "a.timestamp_utc", true},
		{"unmapped passthrough", "unknown", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
			if got := p.Has(tt.viewName); got != tt.has {
				t.Errorf("Has(%q) = %v, want %v", tt.viewName, got, tt.has)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single asc", "action", []query.SortField{{Field: "action"}}},
		{"single desc", "-timestamp", []query.SortField{{Field: "timestamp", Descending: true}}},
		{
			"mixed with spaces",
			"action, -timestamp ,",
			[]query.SortField{{Field: "action"}, {Field: "timestamp", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).Build()
	want := "SELECT a.id, a.action, a.target, a.timestamp_utc FROM public.audit_log a"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("id", "abc")
	want := "SELECT a.id, a.action, a.target, a.timestamp_utc FROM public.audit_log a WHERE a.id = $1"
	if sql != want {
		t.Errorf("BuildSingle() = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args = %v, want [abc]", args)
	}
}

func TestBuilderConditionsNumberParameters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	qb := query.NewBuilder(testProjection()).
		WhereEquals("action", ptr("CASE_CLOSED")).
		WhereSearch(ptr("CASE-1001"), "target", "action").
		WhereRange("timestamp", &from, &to)

	sql, args := qb.BuildCount()
	want := "SELECT COUNT(*) FROM public.audit_log a WHERE a.action = $1 AND " +
		"(a.target ILIKE $2 OR a.action ILIKE $3) AND a.timestamp_utc >= $4 AND a.timestamp_utc < $5"
	if sql != want {
		t.Errorf("BuildCount() =\n%q\nwant\n%q", sql, want)
	}
	if len(args) != 5 {
		t.Fatalf("args length = %d, want 5", len(args))
	}
	if args[1] != "%CASE-1001%" {
		t.Errorf("search arg = %v, want %%CASE-1001%%", args[1])
	}
}

func TestBuilderNilConditionsSkipped(t *testing.T) {
	var nilStr *string
	qb := query.NewBuilder(testProjection()).
		WhereEquals("action", nilStr).
		WhereContains("target", ptr("")).
		WhereSearch(nil, "target").
		WhereRange("timestamp", nil, nil)

	sql, args := qb.BuildCount()
	if sql != "SELECT COUNT(*) FROM public.audit_log a" {
		t.Errorf("BuildCount() = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuilderBuildPageWithSort(t *testing.T) {
	qb := query.NewBuilder(testProjection(), query.SortField{Field: "timestamp", Descending: true})

	sql, _ := qb.BuildPage(3, 20)
	want := "SELECT a.id, a.action, a.target, a.timestamp_utc FROM public.audit_log a " +
		"ORDER BY a.timestamp_utc DESC LIMIT 20 OFFSET 40"
	if sql != want {
		t.Errorf("BuildPage() = %q, want %q", sql, want)
	}

	qb.OrderByFields([]query.SortField{{Field: "action"}, {Field: "1; DROP TABLE audit_log"}})
	sql, _ = qb.BuildPage(1, 10)
	want = "SELECT a.id, a.action, a.target, a.timestamp_utc FROM public.audit_log a " +
		"ORDER BY a.action ASC LIMIT 10 OFFSET 0"
	if sql != want {
		t.Errorf("BuildPage() with sort = %q, want %q", sql, want)
	}
}
