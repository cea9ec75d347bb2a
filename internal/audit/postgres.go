package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/query"
	"github.com/JaimeStill/cct/pkg/repository"
)

var domainErrors = repository.Errors{
	NotFound: ErrNotFound,
	Invalid:  ErrInvalidEntry,
}

type repo struct {
	db         *sql.DB
	projection *query.ProjectionMap
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// NewPostgres creates an audit store backed by the audit_log table in schema.
// The schema is created by cmd/migrate.
func NewPostgres(
	db *sql.DB,
	schema string,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		projection: newProjection(schema),
		logger:     logger.With("system", "audit", "store", "postgres"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Write(ctx context.Context, cmd WriteCommand) (*Entry, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	e := cmd.entry(r.now())

	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("%w: details: %v", ErrInvalidEntry, err)
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp_utc, action, target, outcome, actor, actor_role, context, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, timestamp_utc, action, target, outcome, actor, actor_role, context, details`,
		r.projection.Table(),
	)

	args := []any{
		e.ID,
		e.TimestampUTC,
		string(e.Action),
		e.Target,
		string(e.Outcome),
		e.Actor,
		e.ActorRole,
		e.Context,
		details,
	}

	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		return repository.QueryOne(ctx, tx, q, args, scanEntry)
	})
	if err != nil {
		return nil, repository.MapError(err, domainErrors)
	}

	return &stored, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(r.projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, domainErrors)
	}
	return &e, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(r.projection, defaultSort).
		WhereSearch(page.Search, "Target", "Context")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) All(ctx context.Context, filters Filters) ([]Entry, error) {
	qb := query.NewBuilder(r.projection, chronological)
	filters.Apply(qb)

	q, args := qb.Build()
	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return entries, nil
}
