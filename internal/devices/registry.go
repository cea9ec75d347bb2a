package devices

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/pkg/events"
)

type registry struct {
	mu         sync.Mutex
	registered map[string]Device
	order      []string

	ledger claims.System
	bus    events.System
	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty registry reading claims from ledger. A nil now uses time.Now.
func New(ledger claims.System, bus events.System, logger *slog.Logger, now func() time.Time) System {
	if now == nil {
		now = time.Now
	}
	return &registry{
		registered: make(map[string]Device),
		order:      make([]string, 0),
		ledger:     ledger,
		bus:        bus,
		logger:     logger.With("system", "devices"),
		now:        now,
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *registry) Register(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	serial := strings.TrimSpace(cmd.Serial)
	if serial == "" {
		return nil, ErrSerialRequired
	}

	r.mu.Lock()
	known, exists := r.known(serial)
	if !exists {
		known = r.add(Device{
			Serial: serial,
			Brand:  strings.TrimSpace(cmd.Brand),
			Model:  strings.TrimSpace(cmd.Model),
		})
	}
	r.mu.Unlock()

	if exists {
		r.bus.Publish(ctx, audit.NewEvent(
			ctx,
			audit.ActionDeviceSerialExists,
			audit.OutcomeSuccess,
			serial,
			fmt.Sprintf("Existing device detected (%s)", known.ID),
			nil,
		))
		return &RegisterResult{Status: ResultExisting, Device: known}, nil
	}

	r.logger.Info("device registered", "serial", serial)
	r.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionDeviceRegistered,
		audit.OutcomeSuccess,
		serial,
		fmt.Sprintf("Device registered (%s)", known.ID),
		nil,
	))
	return &RegisterResult{Status: ResultCreated, Device: known}, nil
}

func (r *registry) Create(ctx context.Context, cmd CreateCommand) (*Device, error) {
	serial := strings.TrimSpace(cmd.Serial)
	if serial == "" {
		return nil, ErrSerialRequired
	}

	r.mu.Lock()
	if _, ok := r.registered[serial]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, serial)
	}
	d := r.add(deviceFromCreate(serial, cmd))
	r.mu.Unlock()

	r.created(ctx, d, "Device created")
	return &d, nil
}

func (r *registry) Intake(ctx context.Context, cmd IntakeCommand) (*IntakeResult, error) {
	serial := strings.TrimSpace(cmd.Serial)
	if serial == "" {
		return nil, ErrSerialRequired
	}
	if strings.TrimSpace(cmd.Insurer) == "" ||
		strings.TrimSpace(cmd.LossType) == "" ||
		strings.TrimSpace(cmd.DateOfLoss) == "" ||
		cmd.Outcome == "" {
		return nil, ErrClaimFieldsRequired
	}
	if !cmd.Outcome.DeviceOutcome() {
		return nil, fmt.Errorf("%w: %q", claims.ErrInvalidOutcome, cmd.Outcome)
	}
	if cmd.Amount.IsNegative() {
		return nil, claims.ErrInvalidAmount
	}

	r.mu.Lock()
	device, exists := r.known(serial)
	if !exists {
		create := CreateCommand{
			Serial:   serial,
			IMEI:     cmd.IMEI,
			Category: cmd.Category,
			Brand:    cmd.Brand,
			Model:    cmd.Model,
			Age:      cmd.Age,
		}
		if !create.complete() {
			r.mu.Unlock()
			return nil, ErrDeviceDetailsRequired
		}
		device = r.add(deviceFromCreate(serial, create))
	}
	r.mu.Unlock()

	status := ResultExisting
	if !exists {
		status = ResultCreated
		r.created(ctx, device, "Device created from claim intake")
	}

	imei := strings.TrimSpace(cmd.IMEI)
	if imei == "" {
		imei = device.IMEI
	}

	c, err := r.ledger.RecordDeviceClaim(ctx, claims.DeviceClaimCommand{
		DeviceID:       device.ID,
		Serial:         device.Serial,
		IMEI:           imei,
		Brand:          firstNonEmpty(device.Brand, cmd.Brand),
		Model:          firstNonEmpty(device.Model, cmd.Model),
		DeviceCategory: firstNonEmpty(cmd.Category, device.Category),
		DeviceAge:      firstNonEmpty(cmd.Age, device.Age),
		Insurer:        strings.TrimSpace(cmd.Insurer),
		ClaimReference: cmd.ClaimReference,
		LossType:       cmd.LossType,
		DateOfLoss:     cmd.DateOfLoss,
		Amount:         cmd.Amount,
		Outcome:        cmd.Outcome,
	})
	if err != nil {
		return nil, err
	}

	if exists {
		r.bus.Publish(ctx, audit.NewEvent(
			ctx,
			audit.ActionDuplicateDevice,
			audit.OutcomeSuccess,
			device.Serial,
			"Existing device detected during claim intake",
			map[string]any{"claim_id": c.ID},
		))
	}

	return &IntakeResult{Status: status, Device: device, Claim: *c}, nil
}

func (r *registry) Find(serial string) (*Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	d, ok := r.known(serial)
	r.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *registry) Rows() []Row {
	rows := rowsFromClaims(r.ledger.All())

	seen := make(map[string]struct{}, 2*len(rows))
	for _, row := range rows {
		seen[row.Serial] = struct{}{}
		if row.IMEI != "" {
			seen[row.IMEI] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, serial := range r.order {
		d := r.registered[serial]
		if _, ok := seen[serial]; ok {
			continue
		}
		if _, ok := seen[d.IMEI]; d.IMEI != "" && ok {
			continue
		}
		registeredAt := d.RegisteredAt
		rows = append(rows, Row{
			Serial:       d.Serial,
			IMEI:         d.IMEI,
			Brand:        d.Brand,
			Model:        d.Model,
			Category:     d.Category,
			Age:          d.Age,
			ClaimCount:   0,
			LastInsurer:  unknownInsurer,
			Status:       RowClean,
			LastActivity: &registeredAt,
		})
	}
	return rows
}

func (r *registry) GenerateClaimReference(insurer string) (string, error) {
	return r.ledger.References().Generate(insurer)
}

// known returns the registration for serial, or a device synthesized from
// the most recent matching claim. The caller holds r.mu.
func (r *registry) known(serial string) (Device, bool) {
	if d, ok := r.registered[serial]; ok {
		return d, true
	}

	all := r.ledger.All()
	idx := slices.IndexFunc(all, func(c claims.Claim) bool { return c.Serial == serial })
	if idx < 0 {
		return Device{}, false
	}

	c := all[idx]
	return Device{
		ID:           firstNonEmpty(c.DeviceID, deviceID(serial)),
		Serial:       serial,
		IMEI:         c.IMEI,
		Category:     c.DeviceCategory,
		Brand:        c.Brand,
		Model:        c.Model,
		Age:          c.DeviceAge,
		Status:       StatusExisting,
		RegisteredAt: c.RecordedAt,
	}, true
}

// add stores d as a new registration. The caller holds r.mu.
func (r *registry) add(d Device) Device {
	d.ID = deviceID(d.Serial)
	d.Status = StatusRegistered
	d.RegisteredAt = r.now().UTC()
	r.registered[d.Serial] = d
	r.order = append(r.order, d.Serial)
	return d
}

func (r *registry) created(ctx context.Context, d Device, summary string) {
	r.logger.Info("device created", "serial", d.Serial)
	r.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionDeviceCreated,
		audit.OutcomeSuccess,
		d.Serial,
		summary,
		nil,
	))
}

func deviceFromCreate(serial string, cmd CreateCommand) Device {
	return Device{
		Serial:   serial,
		IMEI:     strings.TrimSpace(cmd.IMEI),
		Category: cmd.Category,
		Brand:    strings.TrimSpace(cmd.Brand),
		Model:    strings.TrimSpace(cmd.Model),
		Age:      cmd.Age,
	}
}

func (c CreateCommand) complete() bool {
	return c.Category != "" &&
		strings.TrimSpace(c.Brand) != "" &&
		strings.TrimSpace(c.Model) != "" &&
		c.Age != ""
}

// rowsFromClaims aggregates claims by device in first-seen order. A claim
// joins the row of an earlier claim sharing its IMEI or serial, matching the
// ledger's duplicate rule.
func rowsFromClaims(all []claims.Claim) []Row {
	byIMEI := make(map[string]int)
	bySerial := make(map[string]int)
	rows := make([]Row, 0)

	for _, c := range all {
		i, ok := byIMEI[c.IMEI]
		if c.IMEI == "" || !ok {
			i, ok = bySerial[c.Serial]
		}
		if !ok {
			i = len(rows)
			rows = append(rows, Row{LastInsurer: unknownInsurer})
		}
		if _, taken := byIMEI[c.IMEI]; c.IMEI != "" && !taken {
			byIMEI[c.IMEI] = i
		}
		if _, taken := bySerial[c.Serial]; c.Serial != "" && !taken {
			bySerial[c.Serial] = i
		}

		row := &rows[i]
		row.ClaimCount++
		row.Serial = firstNonEmpty(row.Serial, c.Serial)
		row.IMEI = firstNonEmpty(row.IMEI, c.IMEI)
		row.Brand = firstNonEmpty(c.Brand, row.Brand)
		row.Model = firstNonEmpty(c.Model, row.Model)
		row.Category = firstNonEmpty(c.DeviceCategory, row.Category)
		row.Age = firstNonEmpty(c.DeviceAge, row.Age)
		if c.Insurer != "" {
			row.LastInsurer = c.Insurer
		}
		if row.LastActivity == nil || c.RecordedAt.After(*row.LastActivity) {
			at := c.RecordedAt
			row.LastActivity = &at
		}
	}

	for i := range rows {
		rows[i].Serial = firstNonEmpty(rows[i].Serial, rows[i].IMEI)
		rows[i].Status = RowClean
		if rows[i].ClaimCount > 1 {
			rows[i].Status = RowDuplicate
		}
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
