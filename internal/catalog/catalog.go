// Package catalog holds the static class and teacher catalog of the studio,
// including the weekly schedule each class is offered on.
package catalog

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Schedule describes on which weekdays and time slots a class runs. TimesByDay
// overrides the shared time list for specific days.
type Schedule struct {
	Days       []string            `yaml:"days"`
	Times      []string            `yaml:"times"`
	TimesByDay map[string][]string `yaml:"timesByDay"`
}

// Class is one bookable class type.
type Class struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Teacher   string   `yaml:"teacher"`
	TeacherID int      `yaml:"teacherId"`
	Duration  int      `yaml:"duration"`
	Schedule  Schedule `yaml:"schedule"`
}

// Teacher is one studio teacher.
type Teacher struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"name"`
	Specialty string   `yaml:"specialty"`
	Classes   []string `yaml:"classes"`
}

// Catalog is the loaded class/teacher catalog.
type Catalog struct {
	Teachers []Teacher `yaml:"teachers"`
	Classes  []Class   `yaml:"classes"`

	byName map[string]*Class
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c.byName = make(map[string]*Class, len(c.Classes))
	for i := range c.Classes {
		c.byName[c.Classes[i].Name] = &c.Classes[i]
	}

	return &c, nil
}

// FindClass looks a class up by its display name.
func (c *Catalog) FindClass(name string) (*Class, bool) {
	cl, ok := c.byName[name]
	return cl, ok
}

// weekday names as the schedule data spells them
var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// IsScheduledSlot reports whether the class named className actually runs on
// the given date (2006-01-02) at the given time (15:04). Unknown classes are
// never scheduled.
func (c *Catalog) IsScheduledSlot(className, date, timeSlot string) bool {
	cl, ok := c.FindClass(className)
	if !ok {
		return false
	}

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	day := weekdayNames[d.Weekday()]

	dayScheduled := false
	for _, sd := range cl.Schedule.Days {
		if sd == day {
			dayScheduled = true
			break
		}
	}
	if !dayScheduled {
		return false
	}

	times := cl.Schedule.Times
	if override, ok := cl.Schedule.TimesByDay[day]; ok {
		times = override
	}
	for _, ts := range times {
		if ts == timeSlot {
			return true
		}
	}
	return false
}
