package audit

import (
	"cmp"
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/cct/pkg/query"
	"github.com/JaimeStill/cct/pkg/repository"
)

func newProjection(schema string) *query.ProjectionMap {
	return query.
		NewProjectionMap(schema, "audit_log", "a").
		Project("id", "ID").
		Project("timestamp_utc", "TimestampUTC").
		Project("action", "Action").
		Project("target", "Target").
		Project("outcome", "Outcome").
		Project("actor", "Actor").
		Project("actor_role", "ActorRole").
		Project("context", "Context").
		Project("details", "Details")
}

var defaultSort = query.SortField{
	Field:      "TimestampUTC",
	Descending: true,
}

var chronological = query.SortField{Field: "TimestampUTC"}

// Filters contains optional filtering criteria for audit queries.
// Nil fields are ignored. From is inclusive and To is exclusive.
type Filters struct {
	Action  *string    `json:"action,omitempty"`
	Target  *string    `json:"target,omitempty"`
	Actor   *string    `json:"actor,omitempty"`
	Outcome *string    `json:"outcome,omitempty"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Action", f.Action).
		WhereEquals("Target", f.Target).
		WhereEquals("Actor", f.Actor).
		WhereEquals("Outcome", f.Outcome).
		WhereRange("TimestampUTC", f.From, f.To)
}

// Matches reports whether e satisfies every set filter.
func (f Filters) Matches(e Entry) bool {
	switch {
	case f.Action != nil && string(e.Action) != *f.Action:
		return false
	case f.Target != nil && e.Target != *f.Target:
		return false
	case f.Actor != nil && e.Actor != *f.Actor:
		return false
	case f.Outcome != nil && string(e.Outcome) != *f.Outcome:
		return false
	case f.From != nil && e.TimestampUTC.Before(*f.From):
		return false
	case f.To != nil && !e.TimestampUTC.Before(*f.To):
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Time bounds use RFC 3339; unparsable bounds are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("action"); a != "" {
		f.Action = &a
	}
	if t := values.Get("target"); t != "" {
		f.Target = &t
	}
	if a := values.Get("actor"); a != "" {
		f.Actor = &a
	}
	if o := values.Get("outcome"); o != "" {
		f.Outcome = &o
	}
	if from, err := time.Parse(time.RFC3339, values.Get("from")); err == nil {
		f.From = &from
	}
	if to, err := time.Parse(time.RFC3339, values.Get("to")); err == nil {
		f.To = &to
	}

	return f
}

func matchesSearch(e Entry, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	s := strings.ToLower(*search)
	return strings.Contains(strings.ToLower(e.Target), s) ||
		strings.Contains(strings.ToLower(e.Context), s)
}

// sortEntries orders entries in memory using the same field names the SQL projection exposes.
func sortEntries(entries []Entry, fields []query.SortField) {
	if len(fields) == 0 {
		fields = []query.SortField{defaultSort}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		for _, f := range fields {
			var c int
			switch f.Field {
			case "TimestampUTC":
				c = a.TimestampUTC.Compare(b.TimestampUTC)
			case "Action":
				c = cmp.Compare(a.Action, b.Action)
			case "Target":
				c = cmp.Compare(a.Target, b.Target)
			case "Actor":
				c = cmp.Compare(a.Actor, b.Actor)
			case "Outcome":
				c = cmp.Compare(a.Outcome, b.Outcome)
			}
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e       Entry
		details []byte
	)
	err := s.Scan(
		&e.ID,
		&e.TimestampUTC,
		&e.Action,
		&e.Target,
		&e.Outcome,
		&e.Actor,
		&e.ActorRole,
		&e.Context,
		&details,
	)
	if err != nil {
		return e, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return e, err
		}
	}
	e.TimestampUTC = e.TimestampUTC.UTC()
	return e, nil
}
