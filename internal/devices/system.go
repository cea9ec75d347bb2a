package devices

import "context"

// System defines the device registry. Only the registry creates device
// records. Claims are read from the ledger.
type System interface {
	Handler() *Handler

	// Register creates a device unless the serial is already registered or
	// appears in any claim, in which case the known device is returned.
	Register(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error)
	// Create strictly creates a registration and fails with ErrDuplicate.
	Create(ctx context.Context, cmd CreateCommand) (*Device, error)
	// Intake records a claim-device claim, creating the device if needed.
	Intake(ctx context.Context, cmd IntakeCommand) (*IntakeResult, error)

	Find(serial string) (*Device, error)
	// Rows lists one row per device: claims grouped by shared IMEI or serial,
	// then registrations with no claims.
	Rows() []Row
	GenerateClaimReference(insurer string) (string, error)
}
