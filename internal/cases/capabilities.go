package cases

import "github.com/JaimeStill/cct/internal/actor"

// Capabilities lists which lifecycle operations a role may perform on a case
// in its current state.
type Capabilities struct {
	Role               actor.Role `json:"role"`
	CanNote            bool       `json:"can_note"`
	CanSetRisk         bool       `json:"can_set_risk"`
	CanLink            bool       `json:"can_link"`
	CanAssign          bool       `json:"can_assign"`
	AssignIsCorrection bool       `json:"assign_is_correction"`
	CanClose           bool       `json:"can_close"`
	CanReopen          bool       `json:"can_reopen"`
	CanExport          bool       `json:"can_export"`
	NextStatuses       []Status   `json:"next_statuses"`
}

// CapabilitiesFor derives the capabilities of role over c.
func CapabilitiesFor(role actor.Role, c *Case) Capabilities {
	closed := c.Status == StatusClosed
	caps := Capabilities{
		Role:       role,
		CanNote:    !closed && actor.CanNote(role),
		CanSetRisk: !closed && actor.CanNote(role),
		CanLink:    !closed && actor.CanOpen(role),
		CanClose:   !closed && actor.CanClose(role),
		CanReopen:  closed && actor.CanReopen(role),
		CanExport:  actor.CanExport(role),
	}

	if closed {
		caps.CanAssign = actor.CanCorrectClosed(role)
		caps.AssignIsCorrection = caps.CanAssign
	} else {
		caps.CanAssign = actor.CanAssign(role)
	}

	caps.NextStatuses = make([]Status, 0)
	for _, next := range NextStatuses(c.Status) {
		switch {
		case next == StatusClosed && !caps.CanClose:
		case closed && !caps.CanReopen:
		default:
			caps.NextStatuses = append(caps.NextStatuses, next)
		}
	}
	return caps
}
