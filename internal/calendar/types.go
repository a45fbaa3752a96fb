package calendar

import "time"

// Category classifies a calendar day.
type Category string

// Day categories, ordered roughly by solemnity. "pascha", "great" and "major"
// count as significant for the upcoming-holidays view.
const (
	CategoryPascha      Category = "pascha"
	CategoryGreat       Category = "great"
	CategoryMajor       Category = "major"
	CategoryPreparatory Category = "preparatory"
	CategoryGreatLent   Category = "great_lent"
	CategoryLent        Category = "lent"
	CategorySaint       Category = "saint"
	CategoryRegular     Category = "regular"
)

// Day describes one calendar day. Computed fresh for every query, never
// persisted.
type Day struct {
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Category     Category `json:"category"`
	Description  string   `json:"description,omitempty"`
	Fast         bool     `json:"fast"`
	Movable      bool     `json:"movable,omitempty"`
	EasterOffset *int     `json:"easter_offset,omitempty"`
	WeekLabel    string   `json:"week_label,omitempty"`
}

// MonthDay is one entry of the month view.
type MonthDay struct {
	Date      time.Time    `json:"date"`
	Day       int          `json:"day"`
	Weekday   time.Weekday `json:"weekday"`
	Info      Day          `json:"info"`
	IsWeekend bool         `json:"is_weekend"`
	Fast      bool         `json:"fast"`
}

// Upcoming is one entry of the upcoming-holidays view.
type Upcoming struct {
	Date time.Time `json:"date"`
	Info Day       `json:"info"`
}

// Holiday is a fixed-date entry of the static dataset, keyed by "MM-DD".
// Entries flagged Movable are resolved through the Easter-offset table
// instead of their Date field.
type Holiday struct {
	Date        string   `yaml:"date"`
	Title       string   `yaml:"title"`
	Type        string   `yaml:"type"`
	Category    Category `yaml:"category"`
	Description string   `yaml:"description"`
	Movable     bool     `yaml:"movable"`
}

// FastingPeriod is a multi-day fixed fast from the static dataset. A period
// whose start month exceeds its end month wraps across the year boundary
// (the Nativity fast). Periods flagged StartVariable are Easter-relative and
// handled in code, not by the month-day range.
type FastingPeriod struct {
	Name          string `yaml:"name"`
	StartDate     string `yaml:"start_date"`
	EndDate       string `yaml:"end_date"`
	StartVariable bool   `yaml:"start_variable"`
}

// Dataset is the static calendar table. Loaded once at service start; an
// empty dataset is valid and classifies every day as regular.
type Dataset struct {
	Holidays       []Holiday         `yaml:"holidays"`
	SaintDays      map[string]string `yaml:"saint_days"`
	FastingPeriods []FastingPeriod   `yaml:"fasting_periods"`
}
