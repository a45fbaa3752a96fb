package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() *Service {
	return New(DefaultDataset())
}

func TestComputeEasterGoldenValues(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2024, day(2024, time.May, 5)},
		{2025, day(2025, time.April, 20)},
		{2026, day(2026, time.April, 12)},
	}

	for _, tc := range tests {
		if got := ComputeEaster(tc.year); !got.Equal(tc.want) {
			t.Errorf("ComputeEaster(%d) = %s; want %s",
				tc.year, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestEasterCalculatorCaches(t *testing.T) {
	c := NewEasterCalculator()
	first := c.Date(2024)
	second := c.Date(2024)
	if !first.Equal(second) || !first.Equal(day(2024, time.May, 5)) {
		t.Errorf("cached date mismatch: %s vs %s", first, second)
	}
}

func TestDescribeDayEaster(t *testing.T) {
	s := newTestService()
	info := s.DescribeDay(day(2024, time.May, 5))

	if info.Category != CategoryPascha {
		t.Errorf("category = %s; want pascha", info.Category)
	}
	if !info.Movable {
		t.Error("Easter must be movable")
	}
	if info.EasterOffset == nil || *info.EasterOffset != 0 {
		t.Errorf("easter offset = %v; want 0", info.EasterOffset)
	}
	if info.Fast {
		t.Error("Easter is not a fasting day")
	}
}

func TestDescribeDayPriority(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name     string
		date     time.Time
		category Category
	}{
		{"fixed holiday", day(2024, time.January, 7), CategoryMajor},
		{"movable feast", day(2024, time.June, 23), CategoryMajor}, // Pentecost, easter+49
		{"saint day", day(2024, time.December, 19), CategorySaint},
		{"regular day", day(2024, time.October, 1), CategoryRegular},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if info := s.DescribeDay(tc.date); info.Category != tc.category {
				t.Errorf("category = %s; want %s", info.Category, tc.category)
			}
		})
	}
}

func TestGreatLentBoundaries(t *testing.T) {
	s := newTestService()

	// Easter 2024 is May 5; Great Lent runs March 18 through May 4.
	if !s.IsFastingDay(day(2024, time.March, 18)) {
		t.Error("first day of Great Lent must be fasting")
	}
	if !s.IsFastingDay(day(2024, time.May, 4)) {
		t.Error("Great Saturday must be fasting")
	}
	if s.IsFastingDay(day(2024, time.May, 6)) {
		t.Error("Bright Monday must not be fasting")
	}
	if s.IsFastingDay(day(2024, time.March, 17)) {
		// The day before Clean Monday is Forgiveness Sunday, not a fast.
		t.Error("day before Great Lent must not be fasting")
	}
}

func TestWeeklyFastSuppressedInBrightWeek(t *testing.T) {
	s := newTestService()

	// Bright Week 2024: May 5 through May 12.
	wednesday := day(2024, time.May, 8)
	friday := day(2024, time.May, 10)
	if wednesday.Weekday() != time.Wednesday || friday.Weekday() != time.Friday {
		t.Fatal("test dates are off")
	}
	if s.IsFastingDay(wednesday) {
		t.Error("Bright Week Wednesday must not be fasting")
	}
	if s.IsFastingDay(friday) {
		t.Error("Bright Week Friday must not be fasting")
	}
}

func TestRegularWednesdayFridayFasting(t *testing.T) {
	s := newTestService()

	wednesday := day(2024, time.October, 2)
	friday := day(2024, time.October, 4)
	if wednesday.Weekday() != time.Wednesday || friday.Weekday() != time.Friday {
		t.Fatal("test dates are off")
	}
	if !s.IsFastingDay(wednesday) {
		t.Error("ordinary Wednesday must be fasting")
	}
	if !s.IsFastingDay(friday) {
		t.Error("ordinary Friday must be fasting")
	}
	if s.IsFastingDay(day(2024, time.October, 1)) {
		t.Error("ordinary Tuesday must not be fasting")
	}
}

func TestNativityFastWrapsYearBoundary(t *testing.T) {
	s := newTestService()

	if !s.IsFastingDay(day(2024, time.December, 10)) {
		t.Error("December 10 falls in the Nativity fast")
	}
	if !s.IsFastingDay(day(2025, time.January, 3)) {
		t.Error("January 3 falls in the Nativity fast")
	}
	// January 10, 2025 is a Friday inside Yuletide: the weekly fast is suspended.
	jan10 := day(2025, time.January, 10)
	if jan10.Weekday() != time.Friday {
		t.Fatal("test date is off")
	}
	if s.IsFastingDay(jan10) {
		t.Error("Yuletide Friday must not be fasting")
	}
}

func TestDormitionFastBoundaries(t *testing.T) {
	s := newTestService()

	// August 13, 2024 is a Tuesday just before the fast starts.
	if s.IsFastingDay(day(2024, time.August, 13)) {
		t.Error("day before the Dormition fast must not be fasting")
	}
	if !s.IsFastingDay(day(2024, time.August, 14)) {
		t.Error("first day of the Dormition fast must be fasting")
	}
	if !s.IsFastingDay(day(2024, time.August, 27)) {
		t.Error("last day of the Dormition fast must be fasting")
	}
	// August 5, 2024 is a Monday well outside the same-month range.
	if s.IsFastingDay(day(2024, time.August, 5)) {
		t.Error("early August Monday must not be fasting")
	}
}

func TestApostlesFast(t *testing.T) {
	s := newTestService()

	// 2024: Pentecost June 23, fast runs July 1 through July 12.
	monday := day(2024, time.July, 8)
	if monday.Weekday() != time.Monday {
		t.Fatal("test date is off")
	}
	if !s.IsFastingDay(monday) {
		t.Error("Monday inside the Apostles' Fast must be fasting")
	}
	if s.IsFastingDay(day(2024, time.July, 15)) {
		t.Error("Monday after the Apostles' Fast must not be fasting")
	}
}

func TestSingleDayFasts(t *testing.T) {
	s := newTestService()

	for _, d := range []time.Time{
		day(2024, time.January, 18),
		day(2024, time.September, 11),
		day(2024, time.September, 27),
	} {
		if !s.IsFastingDay(d) {
			t.Errorf("%s must be a single-day fast", d.Format("2006-01-02"))
		}
	}
}

func TestWeekLabelOnSundaysOnly(t *testing.T) {
	s := newTestService()

	// May 12, 2024 is the Sunday after Easter.
	sunday := s.DescribeDay(day(2024, time.May, 12))
	if sunday.WeekLabel != "Антипасха (Фомина неделя)" {
		t.Errorf("week label = %q; want Antipascha", sunday.WeekLabel)
	}

	monday := s.DescribeDay(day(2024, time.May, 13))
	if monday.WeekLabel != "" {
		t.Errorf("weekday got week label %q; want none", monday.WeekLabel)
	}
}

func TestMonthCalendarCompleteness(t *testing.T) {
	s := newTestService()

	if got := len(s.MonthCalendar(2024, time.February)); got != 29 {
		t.Errorf("February 2024 has %d entries; want 29", got)
	}
	if got := len(s.MonthCalendar(2025, time.February)); got != 28 {
		t.Errorf("February 2025 has %d entries; want 28", got)
	}

	days := s.MonthCalendar(2024, time.February)
	for i, d := range days {
		if d.Day != i+1 {
			t.Fatalf("entry %d holds day %d; want %d", i, d.Day, i+1)
		}
		weekend := d.Weekday == time.Saturday || d.Weekday == time.Sunday
		if d.IsWeekend != weekend {
			t.Errorf("day %d weekend flag = %v", d.Day, d.IsWeekend)
		}
	}
}

func TestUpcomingHolidaysFiltersSignificant(t *testing.T) {
	s := newTestService()

	upcoming := s.UpcomingHolidays(day(2025, time.January, 1), 10)
	if len(upcoming) != 1 {
		t.Fatalf("got %d upcoming holidays; want 1", len(upcoming))
	}
	if upcoming[0].Info.Title != "Рождество Христово" {
		t.Errorf("title = %q; want Nativity", upcoming[0].Info.Title)
	}
	if !upcoming[0].Date.Equal(day(2025, time.January, 7)) {
		t.Errorf("date = %s; want 2025-01-07", upcoming[0].Date.Format("2006-01-02"))
	}
}

func TestEmptyDatasetStillClassifies(t *testing.T) {
	s := New(EmptyDataset())

	info := s.DescribeDay(day(2024, time.January, 7))
	if info.Category != CategoryRegular {
		t.Errorf("category = %s; want regular without data", info.Category)
	}

	// Easter-relative rules keep working without any static data.
	if s.DescribeDay(day(2024, time.May, 5)).Category != CategoryPascha {
		t.Error("Easter classification must not depend on the dataset")
	}
	if !s.IsFastingDay(day(2024, time.March, 18)) {
		t.Error("Great Lent must not depend on the dataset")
	}
}

func TestNewSkipsMalformedFastingPeriods(t *testing.T) {
	s := New(Dataset{
		FastingPeriods: []FastingPeriod{
			{Name: "broken", StartDate: "oops", EndDate: "08-27"},
			{Name: "good", StartDate: "08-14", EndDate: "08-27"},
		},
	})
	if len(s.periods) != 1 {
		t.Errorf("parsed %d periods; want 1", len(s.periods))
	}
	if !s.IsFastingDay(day(2024, time.August, 20)) {
		t.Error("valid period must still apply")
	}
}

func TestFindHolidays(t *testing.T) {
	s := newTestService()

	results := s.FindHolidays("пасха")
	if len(results) == 0 {
		t.Fatal("expected matches for Easter query")
	}
	if !results[0].Movable || results[0].EasterOffset == nil {
		t.Errorf("first result = %+v; want the movable Easter entry", results[0])
	}

	if got := s.FindHolidays("   "); got != nil {
		t.Errorf("blank query returned %d results; want none", len(got))
	}

	// Case-insensitive.
	upper := s.FindHolidays("РОЖДЕСТВО")
	if len(upper) == 0 {
		t.Error("uppercase query must match")
	}
}

func TestDatasetFromFileOrDefault(t *testing.T) {
	data := DatasetFromFileOrDefault("")
	if len(data.Holidays) == 0 || len(data.SaintDays) == 0 {
		t.Error("embedded dataset must not be empty")
	}

	missing := DatasetFromFileOrDefault("/nonexistent/calendar.yaml")
	if len(missing.Holidays) != 0 {
		t.Error("missing file must fall back to the empty dataset")
	}
}
