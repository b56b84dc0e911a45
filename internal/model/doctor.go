package model

// Role divides the team into two disjoint scheduling groups.
type Role string

const (
	// RoleFixed doctors only serve self-declared fixed days and never
	// enter the rotation draw.
	RoleFixed Role = "fixed"
	// RoleRotation doctors take part in the scored randomized draw.
	RoleRotation Role = "rotation"
)

// Doctor is identified by its stable display name.
type Doctor struct {
	Name string `yaml:"name" json:"name"`
	Role Role   `yaml:"role" json:"role"`

	// NoOptout subjects the doctor to the 48-hour weekly cap.
	NoOptout bool `yaml:"no_optout" json:"no_optout"`
	// SaturdayRule binds a Saturday on-call to the following Monday off.
	SaturdayRule bool `yaml:"saturday_rule" json:"saturday_rule"`
}

// Team is the full doctor roster. Slice order is the canonical order used
// for fixed-conflict resolution and cross-trial tie-breaking.
type Team struct {
	Doctors []Doctor
}

// Fixed returns the fixed-role doctors in canonical order.
func (t *Team) Fixed() []Doctor {
	return t.byRole(RoleFixed)
}

// Rotation returns the rotation-role doctors in canonical order.
func (t *Team) Rotation() []Doctor {
	return t.byRole(RoleRotation)
}

func (t *Team) byRole(role Role) []Doctor {
	var out []Doctor
	for _, d := range t.Doctors {
		if d.Role == role {
			out = append(out, d)
		}
	}
	return out
}

// ByName looks a doctor up by display name.
func (t *Team) ByName(name string) (Doctor, bool) {
	for _, d := range t.Doctors {
		if d.Name == name {
			return d, true
		}
	}
	return Doctor{}, false
}

// SeniorFixed returns the first fixed-role doctor in canonical order, the
// one excluded from the daily timetable by policy. ok is false when the
// team has no fixed doctors.
func (t *Team) SeniorFixed() (Doctor, bool) {
	fixed := t.Fixed()
	if len(fixed) == 0 {
		return Doctor{}, false
	}
	return fixed[0], true
}

// Names returns all doctor names in canonical order.
func (t *Team) Names() []string {
	names := make([]string, 0, len(t.Doctors))
	for _, d := range t.Doctors {
		names = append(names, d.Name)
	}
	return names
}
