package jobs

// DefaultPortals are searched when a profile does not name any.
var DefaultPortals = []string{"linkedin", "naukri", "indeed", "hirist", "timesjobs", "talentoindia"}

// Profile is the candidate's stated preferences. Every field may be empty.
type Profile struct {
	ID              string   `json:"id,omitempty" mapstructure:"id"`
	Name            string   `json:"name,omitempty" mapstructure:"name"`
	Email           string   `json:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone,omitempty" mapstructure:"phone"`
	YearsExperience *float64 `json:"years_experience,omitempty" mapstructure:"years_experience" validate:"omitempty,gte=0"`
	Locations       []string `json:"locations" mapstructure:"locations"`
	Roles           []string `json:"roles" mapstructure:"roles"`
	Skills          []string `json:"skills" mapstructure:"skills"`
	Portals         []string `json:"portals" mapstructure:"portals"`
	ResumeText      string   `json:"resume_text,omitempty" mapstructure:"resume_text"`
}

// PrimaryRole returns the first preferred role or an empty string.
func (p *Profile) PrimaryRole() string {
	if p == nil || len(p.Roles) == 0 {
		return ""
	}
	return p.Roles[0]
}

// PortalsOrDefault returns the configured portals, falling back to DefaultPortals.
func (p *Profile) PortalsOrDefault() []string {
	if p == nil || len(p.Portals) == 0 {
		return append([]string(nil), DefaultPortals...)
	}
	return append([]string(nil), p.Portals...)
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.YearsExperience != nil {
		years := *p.YearsExperience
		c.YearsExperience = &years
	}
	c.Locations = append([]string(nil), p.Locations...)
	c.Roles = append([]string(nil), p.Roles...)
	c.Skills = append([]string(nil), p.Skills...)
	c.Portals = append([]string(nil), p.Portals...)
	return &c
}
