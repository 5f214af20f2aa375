package learning

import "strings"

// Problem identifies an exercise within a track.
type Problem struct {
	TrackID string `json:"track_id"`
	Slug    string `json:"slug"`
}

func (p Problem) Valid() bool {
	return strings.TrimSpace(p.TrackID) != "" && strings.TrimSpace(p.Slug) != ""
}

// Name renders a slug for display: "leap-year" becomes "Leap Year".
func (p Problem) Name() string {
	parts := strings.Split(p.Slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func (p Problem) String() string { return p.TrackID + "/" + p.Slug }
