package engine

import "strings"

// DefaultIcon is assigned to containers created without an icon.
const DefaultIcon = "📋"

// Color is a named palette entry.
type Color struct {
	Name string
	Hex  string
}

// Palette lists the colors offered for containers and sub-containers. The
// first entry is used when a create request carries no color.
var Palette = []Color{
	{Name: "Red", Hex: "#ef4444"},
	{Name: "Orange", Hex: "#f97316"},
	{Name: "Amber", Hex: "#f59e0b"},
	{Name: "Yellow", Hex: "#eab308"},
	{Name: "Lime", Hex: "#84cc16"},
	{Name: "Green", Hex: "#22c55e"},
	{Name: "Teal", Hex: "#14b8a6"},
	{Name: "Cyan", Hex: "#06b6d4"},
	{Name: "Blue", Hex: "#3b82f6"},
	{Name: "Violet", Hex: "#8b5cf6"},
	{Name: "Purple", Hex: "#a855f7"},
	{Name: "Pink", Hex: "#ec4899"},
}

// ColorByName returns the palette entry with the given name, ignoring case.
func ColorByName(name string) (Color, bool) {
	for _, c := range Palette {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Color{}, false
}
