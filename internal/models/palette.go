package models

// Palette is a named, fixed set of color values applied across the UI.
// Every field is an explicit literal; nothing is derived from another color.
type Palette struct {
	Primary            string `json:"primary" yaml:"primary"`
	Secondary          string `json:"secondary" yaml:"secondary"`
	SecondaryText      string `json:"secondaryText" yaml:"secondaryText"`
	Background         string `json:"background" yaml:"background"`
	Text               string `json:"text" yaml:"text"`
	CardBackground     string `json:"cardBackground" yaml:"cardBackground"`
	Card               string `json:"card" yaml:"card"`
	ButtonBackground   string `json:"buttonBackground" yaml:"buttonBackground"`
	ButtonText         string `json:"buttonText" yaml:"buttonText"`
	HeaderBackground   string `json:"headerBackground" yaml:"headerBackground"`
	HeaderText         string `json:"headerText" yaml:"headerText"`
	BorderColor        string `json:"borderColor" yaml:"borderColor"`
	CalendarBackground string `json:"calendarBackground" yaml:"calendarBackground"`
	StatusBarColor     string `json:"statusBarColor" yaml:"statusBarColor"`
	Success            string `json:"success,omitempty" yaml:"success"`
	Accent             string `json:"accent" yaml:"accent"`
	Warning            string `json:"warning" yaml:"warning"`
}

// ThemeState is the snapshot delivered to theme subscribers
type ThemeState struct {
	Name    string  `json:"name"`
	Palette Palette `json:"colors"`
}

// CalendarMark describes how a date is decorated on the calendar
type CalendarMark struct {
	Marked        bool   `json:"marked,omitempty"`
	DotColor      string `json:"dotColor,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}
