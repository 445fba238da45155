package layout

import (
	"hash/fnv"

	colorful "github.com/lucasb-eyer/go-colorful"

	"weekcal/internal/model"
)

// UnassignedColor is used for tasks without an assignee.
const UnassignedColor = "#9e9e9e"

// Palette resolves assignee ids to display colours.
type Palette struct {
	byID map[string]string
}

// NewPalette indexes users whose configured colour parses as hex. Users
// without a usable colour fall through to the hashed placeholder.
func NewPalette(users []model.User) Palette {
	p := Palette{byID: make(map[string]string, len(users))}
	for _, u := range users {
		if u.ID == "" || u.DisplayColor == "" {
			continue
		}
		c, err := colorful.Hex(u.DisplayColor)
		if err != nil {
			continue
		}
		p.byID[u.ID] = c.Hex()
	}
	return p
}

// Color returns the colour for an assignee id.
func (p Palette) Color(id string) string {
	if id == "" {
		return UnassignedColor
	}
	if c, ok := p.byID[id]; ok {
		return c
	}
	return PlaceholderColor(id)
}

// PlaceholderColor derives a stable colour from id.
func PlaceholderColor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsl(hue, 0.55, 0.55).Hex()
}
