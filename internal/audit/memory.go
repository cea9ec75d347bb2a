package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/query"
)

type memory struct {
	mu         sync.RWMutex
	entries    []Entry
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// NewMemory creates an in-process audit store. Entries live for the lifetime of the process.
func NewMemory(logger *slog.Logger, pagination pagination.Config) System {
	return &memory{
		entries:    make([]Entry, 0),
		logger:     logger.With("system", "audit", "store", "memory"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (m *memory) Handler() *Handler {
	return NewHandler(m, m.logger, m.pagination)
}

func (m *memory) Write(ctx context.Context, cmd WriteCommand) (*Entry, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	e := cmd.entry(m.now())
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	out := e.clone()
	return &out, nil
}

func (m *memory) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id {
			out := e.clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memory) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(m.pagination)

	matched := m.filter(filters, page.Search)
	sortEntries(matched, page.Sort)

	result := pagination.Paginate(matched, page)
	return &result, nil
}

func (m *memory) All(ctx context.Context, filters Filters) ([]Entry, error) {
	matched := m.filter(filters, nil)
	sortEntries(matched, []query.SortField{chronological})
	return matched, nil
}

func (m *memory) filter(filters Filters, search *string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if filters.Matches(e) && matchesSearch(e, search) {
			out = append(out, e.clone())
		}
	}
	return out
}
