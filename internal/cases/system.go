package cases

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/pkg/pagination"
)

// System is the case lifecycle engine. The acting identity is read from the
// context of every mutating call. Returned cases are copies.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Case, error)
	OpenFromEvidence(ctx context.Context, cmd OpenFromEvidenceCommand) (*Case, error)

	ChangeStatus(ctx context.Context, id string, cmd StatusCommand) (*Case, error)
	Assign(ctx context.Context, id string, cmd AssignCommand) (*Case, error)
	AddNote(ctx context.Context, id string, cmd NoteCommand) (*Case, error)
	EditNote(ctx context.Context, id string, noteID uuid.UUID, cmd NoteCommand) (*Case, error)
	DeleteNote(ctx context.Context, id string, noteID uuid.UUID, expectedVersion int) (*Case, error)
	SetRiskLevel(ctx context.Context, id string, cmd RiskCommand) (*Case, error)
	LinkClaim(ctx context.Context, id string, cmd LinkClaimCommand) (*Case, error)
	LinkDevice(ctx context.Context, id string, cmd LinkDeviceCommand) (*Case, error)
	Close(ctx context.Context, id string, cmd CloseCommand) (*Case, error)
	Reopen(ctx context.Context, id string, cmd ReopenCommand) (*Case, error)

	Find(id string) (*Case, error)
	List(page pagination.PageRequest, filters Filters) *pagination.PageResult[Case]
	Capabilities(role actor.Role, id string) (*Capabilities, error)
}
