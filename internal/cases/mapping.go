package cases

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"github.com/JaimeStill/cct/pkg/query"
)

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional criteria for case listings. Nil fields are ignored.
type Filters struct {
	Status     *string `json:"status,omitempty"`
	RiskLevel  *string `json:"risk_level,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Origin     *string `json:"origin,omitempty"`
	Identity   *string `json:"identity,omitempty"`
}

// Matches reports whether c satisfies every set filter.
func (f Filters) Matches(c Case) bool {
	switch {
	case f.Status != nil && string(c.Status) != *f.Status:
		return false
	case f.RiskLevel != nil && string(c.RiskLevel) != *f.RiskLevel:
		return false
	case f.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *f.AssignedTo):
		return false
	case f.Origin != nil && string(c.Origin) != *f.Origin:
		return false
	case f.Identity != nil && !slices.Contains(c.LinkedIdentities, *f.Identity):
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if r := values.Get("risk_level"); r != "" {
		f.RiskLevel = &r
	}
	if a := values.Get("assigned_to"); a != "" {
		f.AssignedTo = &a
	}
	if o := values.Get("origin"); o != "" {
		f.Origin = &o
	}
	if id := values.Get("identity"); id != "" {
		f.Identity = &id
	}

	return f
}

func matchesSearch(c Case, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	s := strings.ToLower(*search)
	if strings.Contains(strings.ToLower(c.ID), s) {
		return true
	}
	for _, id := range c.LinkedIdentities {
		if strings.Contains(strings.ToLower(id), s) {
			return true
		}
	}
	return false
}

func sortCases(list []Case, fields []query.SortField) {
	if len(fields) == 0 {
		fields = []query.SortField{defaultSort}
	}

	slices.SortStableFunc(list, func(a, b Case) int {
		for _, f := range fields {
			var c int
			switch f.Field {
			case "ID":
				c = cmp.Compare(a.ID, b.ID)
			case "CreatedAt":
				c = a.CreatedAt.Compare(b.CreatedAt)
			case "UpdatedAt":
				c = a.UpdatedAt.Compare(b.UpdatedAt)
			case "Status":
				c = cmp.Compare(a.Status, b.Status)
			case "RiskLevel":
				c = cmp.Compare(a.RiskLevel.rank(), b.RiskLevel.rank())
			}
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
