package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/pkg/pagination"
)

// System defines the public contract for the audit log. There is no update
// or delete operation.
type System interface {
	Handler() *Handler

	Write(ctx context.Context, cmd WriteCommand) (*Entry, error)
	Find(ctx context.Context, id uuid.UUID) (*Entry, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	// All returns every entry matching filters in chronological order.
	All(ctx context.Context, filters Filters) ([]Entry, error)
}
