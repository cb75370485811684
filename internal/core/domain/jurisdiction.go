package domain

import "strings"

type State struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type County struct {
	ID           int64  `json:"id"`
	StateID      int64  `json:"state_id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	CourtName    string `json:"court_name,omitempty"`
	CourtAddress string `json:"court_address,omitempty"`
	CourtPhone   string `json:"court_phone,omitempty"`
	DMVOffice    string `json:"dmv_office,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Jurisdiction struct {
	State  State  `json:"state"`
	County County `json:"county"`
}

// FollowUpPath is the site path of the county's next-steps page.
func (j Jurisdiction) FollowUpPath() string {
	return "/" + j.State.Slug + "/" + j.County.Slug + "-county/next-steps"
}

// StateSeed and CountySeed describe directory rows loaded from seed files.
type StateSeed struct {
	Code     string       `yaml:"code"`
	Name     string       `yaml:"name"`
	Counties []CountySeed `yaml:"counties"`
}

type CountySeed struct {
	Name         string `yaml:"name"`
	CourtName    string `yaml:"court_name"`
	CourtAddress string `yaml:"court_address"`
	CourtPhone   string `yaml:"court_phone"`
	DMVOffice    string `yaml:"dmv_office"`
	Notes        string `yaml:"notes"`
}

// Slugify normalizes a state or county reference: "Harris County" -> "harris".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case r == '.' || r == '\'':
		default:
			if b.Len() > 0 && !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	for _, suffix := range []string{"-county", "-parish", "-borough"} {
		if strings.HasSuffix(out, suffix) && len(out) > len(suffix) {
			out = strings.TrimSuffix(out, suffix)
			break
		}
	}
	return out
}
