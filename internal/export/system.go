package export

import (
	"context"

	"github.com/JaimeStill/cct/internal/audit"
)

// System produces compliance exports. Exports never modify the records
// they read; each one is itself audited.
type System interface {
	Handler() *Handler

	CaseReport(ctx context.Context, caseID string) (*CaseReport, error)
	AuditReport(ctx context.Context, filters audit.Filters) (*AuditReport, error)
}
