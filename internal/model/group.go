package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Color is a browser tab-group color.
type Color string

const (
	ColorGrey   Color = "grey"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorCyan   Color = "cyan"
	ColorOrange Color = "orange"
)

var Palette = []Color{
	ColorGrey, ColorBlue, ColorRed, ColorYellow, ColorGreen,
	ColorPink, ColorPurple, ColorCyan, ColorOrange,
}

var colorHex = map[Color]string{
	ColorGrey:   "#5f6368",
	ColorBlue:   "#1967d2",
	ColorRed:    "#d93025",
	ColorYellow: "#ea8600",
	ColorGreen:  "#1e8e3e",
	ColorPink:   "#d01884",
	ColorPurple: "#8430ce",
	ColorCyan:   "#12b5cb",
	ColorOrange: "#fa903e",
}

func (c Color) Valid() bool {
	_, ok := colorHex[c]
	return ok
}

// Hex returns the display color, grey for unknown values.
func (c Color) Hex() string {
	if h, ok := colorHex[c]; ok {
		return h
	}
	return colorHex[ColorGrey]
}

const MaxGroupNameLen = 50

type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     Color  `json:"color"`
	CreatedAt int64  `json:"createdAt"`
}

// ValidateGroup checks name and color and returns the trimmed name.
// Uniqueness is the store's job.
func ValidateGroup(name string, color Color) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "group name cannot be empty"}
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLen {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("group name must be %d characters or less", MaxGroupNameLen)}
	}
	if !color.Valid() {
		return "", &ValidationError{Field: "color", Reason: fmt.Sprintf("unknown color %q", color)}
	}
	return name, nil
}

// FindGroupByName matches case-insensitively, skipping excludeID.
func FindGroupByName(groups []Group, name, excludeID string) (Group, bool) {
	name = strings.TrimSpace(name)
	for _, g := range groups {
		if g.ID != excludeID && strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return Group{}, false
}

type Settings struct {
	Notifications bool `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{Notifications: true}
}
