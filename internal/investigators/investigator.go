// Package investigators provides the directory of investigators that cases
// may be assigned to.
package investigators

import "github.com/JaimeStill/cct/internal/actor"

// Investigator is a member of the fraud unit.
type Investigator struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role actor.Role `json:"role"`
}

// Seed is the default investigator directory.
var Seed = []Investigator{
	{ID: "ana.smith", Name: "Ana Smith", Role: actor.RoleAnalyst},
	{ID: "jamal.khan", Name: "Jamal Khan", Role: actor.RoleAnalyst},
	{ID: "priya.nair", Name: "Priya Nair", Role: actor.RoleManager},
	{ID: "luis.fern", Name: "Luis Fernandez", Role: actor.RoleAnalyst},
}
