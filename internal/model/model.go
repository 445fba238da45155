package model

import "time"

// CalendarTask is a task as supplied by a task source. The layout engine
// only reads it.
type CalendarTask struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`

	// AllDay defaults to false when absent in the source document.
	AllDay bool `yaml:"all_day,omitempty" json:"all_day"`

	AssigneeID string `yaml:"assignee,omitempty" json:"assignee_id,omitempty"`
	ProjectID  string `yaml:"project,omitempty" json:"project_id,omitempty"`
	Status     string `yaml:"status,omitempty" json:"status,omitempty"`
	Priority   string `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// User is the slice of the user directory the calendar needs: an id and an
// optional display colour ("#rrggbb").
type User struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name,omitempty" json:"name,omitempty"`
	DisplayColor string `yaml:"color,omitempty" json:"display_color,omitempty"`
}
