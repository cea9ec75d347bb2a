package investigators

import (
	"log/slog"
	"slices"
	"strings"
)

// System is the read-only investigator directory.
type System interface {
	Handler() *Handler
	List() []Investigator
	Find(id string) (*Investigator, error)
}

type directory struct {
	entries []Investigator
	logger  *slog.Logger
}

// New creates a directory over entries. The slice is copied.
func New(entries []Investigator, logger *slog.Logger) System {
	return &directory{
		entries: slices.Clone(entries),
		logger:  logger.With("system", "investigators"),
	}
}

func (d *directory) Handler() *Handler {
	return NewHandler(d, d.logger)
}

func (d *directory) List() []Investigator {
	return slices.Clone(d.entries)
}

func (d *directory) Find(id string) (*Investigator, error) {
	id = strings.TrimSpace(id)
	for _, inv := range d.entries {
		if inv.ID == id {
			out := inv
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
