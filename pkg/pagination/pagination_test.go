package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/cct/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultPageSize != 25 {
		t.Errorf("DefaultPageSize = %d, want 25", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.MaxPageSize)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "50")
	t.Setenv("TEST_MAX_PAGE", "200")

	env := &pagination.ConfigEnv{
		DefaultPageSize: "TEST_PAGE_SIZE",
		MaxPageSize:     "TEST_MAX_PAGE",
	}

	cfg := pagination.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultPageSize != 50 {
		t.Errorf("DefaultPageSize = %d, want 50", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 200 {
		t.Errorf("MaxPageSize = %d, want 200", cfg.MaxPageSize)
	}
}

func TestConfigFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pagination.Config
		wantErr string
	}{
		{"default exceeds max", pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}, "cannot exceed max_page_size"},
		{"max exceeds cap", pagination.Config{DefaultPageSize: 10, MaxPageSize: 1000}, "max_page_size cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values", pagination.PageRequest{}, 1, 20},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 10}, 1, 10},
		{"exceeds max", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			if tt.req.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", tt.req.Page, tt.wantPage)
			}
			if tt.req.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", tt.req.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "2")
	values.Set("page_size", "5")
	values.Set("search", "CASE-1001")
	values.Set("sort", "-timestamp")

	req := pagination.PageRequestFromQuery(values, defaultConfig())

	if req.Page != 2 || req.PageSize != 5 {
		t.Errorf("page/size = %d/%d, want 2/5", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "CASE-1001" {
		t.Errorf("Search = %v, want CASE-1001", req.Search)
	}
	if len(req.Sort) != 1 || req.Sort[0].Field != "timestamp" || !req.Sort[0].Descending {
		t.Errorf("Sort = %+v", req.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		pageSize       int
		wantTotalPages int
	}{
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"empty", 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagination.NewPageResult([]int{}, tt.total, 1, tt.pageSize)
			if got.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.wantTotalPages)
			}
		})
	}
}

func TestNewPageResultNilDataBecomesEmpty(t *testing.T) {
	got := pagination.NewPageResult[string](nil, 0, 1, 20)
	if got.Data == nil {
		t.Error("Data should be empty slice, not nil")
	}
}

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name     string
		page     int
		pageSize int
		want     []string
	}{
		{"first page", 1, 2, []string{"a", "b"}},
		{"last partial page", 3, 2, []string{"e"}},
		{"past the end", 4, 2, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagination.Paginate(items, pagination.PageRequest{Page: tt.page, PageSize: tt.pageSize})
			if got.Total != 5 {
				t.Errorf("Total = %d, want 5", got.Total)
			}
			if strings.Join(got.Data, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Data = %v, want %v", got.Data, tt.want)
			}
		})
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"string", `{"sort":"-timestamp"}`},
		{"array", `{"sort":[{"field":"timestamp","descending":true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req pagination.PageRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if len(req.Sort) != 1 || req.Sort[0].Field != "timestamp" || !req.Sort[0].Descending {
				t.Errorf("Sort = %+v", req.Sort)
			}
		})
	}
}
