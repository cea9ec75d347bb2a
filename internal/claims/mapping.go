package claims

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"github.com/JaimeStill/cct/pkg/query"
)

var defaultSort = query.SortField{Field: "RecordedAt", Descending: true}

// Filters contains optional criteria for claim listings. Nil fields are ignored.
type Filters struct {
	Source   *string `json:"source,omitempty"`
	Outcome  *string `json:"outcome,omitempty"`
	Insurer  *string `json:"insurer,omitempty"`
	Identity *string `json:"identity,omitempty"`
}

// Matches reports whether c satisfies every set filter.
func (f Filters) Matches(c Claim) bool {
	switch {
	case f.Source != nil && string(c.Source) != *f.Source:
		return false
	case f.Outcome != nil && string(c.Outcome) != *f.Outcome:
		return false
	case f.Insurer != nil && c.Insurer != *f.Insurer:
		return false
	case f.Identity != nil && !c.MatchesIdentity(*f.Identity):
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("source"); s != "" {
		f.Source = &s
	}
	if o := values.Get("outcome"); o != "" {
		f.Outcome = &o
	}
	if i := values.Get("insurer"); i != "" {
		f.Insurer = &i
	}
	if id := values.Get("identity"); id != "" {
		f.Identity = &id
	}

	return f
}

func matchesSearch(c Claim, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	s := strings.ToLower(*search)
	for _, v := range []string{c.IMEI, c.Serial, c.Brand, c.Model, c.ClaimReference} {
		if strings.Contains(strings.ToLower(v), s) {
			return true
		}
	}
	return false
}

func sortClaims(list []Claim, fields []query.SortField) {
	if len(fields) == 0 {
		fields = []query.SortField{defaultSort}
	}

	slices.SortStableFunc(list, func(a, b Claim) int {
		for _, f := range fields {
			var c int
			switch f.Field {
			case "ID":
				c = cmp.Compare(a.ID, b.ID)
			case "RecordedAt":
				c = a.RecordedAt.Compare(b.RecordedAt)
			case "Amount":
				c = a.Amount.Cmp(b.Amount)
			case "Insurer":
				c = cmp.Compare(a.Insurer, b.Insurer)
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
		return cmp.Compare(a.ID, b.ID)
	})
}

func newestFirst(list []Claim) {
	slices.SortStableFunc(list, func(a, b Claim) int {
		if c := b.RecordedAt.Compare(a.RecordedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
