// Package calendar computes the Orthodox liturgical calendar: the date of
// Easter, the classification of any civil date against fixed and movable
// feasts, and the layered fasting rules.
package calendar

import (
	"log"
	"strconv"
	"strings"
	"time"
)

// movableFeasts maps an offset in days from Easter to the feast celebrated on
// that day. The offsets are part of the liturgical definition, not tunables.
var movableFeasts = map[int]Day{
	-63: {
		Title:    "Неделя о мытаре и фарисее",
		Type:     "Подготовительная к Великому посту",
		Category: CategoryPreparatory,
	},
	-56: {
		Title:    "Неделя о блудном сыне",
		Type:     "Подготовительная к Великому посту",
		Category: CategoryPreparatory,
	},
	-49: {
		Title:    "Неделя мясопустная",
		Type:     "Прощеное воскресенье",
		Category: CategoryPreparatory,
	},
	-48: {
		Title:    "Начало Великого поста",
		Type:     "Чистый понедельник",
		Category: CategoryGreatLent,
	},
	-7: {
		Title:    "Лазарева суббота",
		Type:     "Воскрешение Лазаря",
		Category: CategoryLent,
	},
	-1: {
		Title:    "Вход Господень в Иерусалим",
		Type:     "Вербное воскресенье",
		Category: CategoryMajor,
	},
	0: {
		Title:       "ПАСХА - ВОСКРЕСЕНИЕ ХРИСТОВО",
		Type:        "Праздник праздников",
		Category:    CategoryPascha,
		Description: "Светлое Христово Воскресение - главный праздник христианства",
	},
	39: {
		Title:    "Вознесение Господне",
		Type:     "Двунадесятый праздник",
		Category: CategoryMajor,
	},
	49: {
		Title:    "День Святой Троицы (Пятидесятница)",
		Type:     "Двунадесятый праздник",
		Category: CategoryMajor,
	},
	50: {
		Title:    "День Святого Духа",
		Type:     "Понедельник Святого Духа",
		Category: CategoryMajor,
	},
}

// weekNames labels the named Sundays by their offset from Easter.
var weekNames = map[int]string{
	-63: "Неделя о мытаре и фарисее",
	-56: "Неделя о блудном сыне",
	-49: "Неделя мясопустная (Прощеное воскресенье)",
	-42: "1-я седмица Великого поста",
	-35: "2-я седмица Великого поста",
	-28: "3-я седмица Великого поста (Крестопоклонная)",
	-21: "4-я седмица Великого поста",
	-14: "5-я седмица Великого поста",
	-7:  "6-я седмица Великого поста (Вход Господень в Иерусалим)",
	0:   "ПАСХА - ВОСКРЕСЕНИЕ ХРИСТОВО",
	7:   "Антипасха (Фомина неделя)",
	14:  "Неделя жен-мироносиц",
	21:  "Неделя о расслабленном",
	28:  "Неделя о самарянке",
	35:  "Неделя о слепом",
	42:  "Отдание Пасхи",
	49:  "День Святой Троицы (Пятидесятница)",
}

// singleDayFasts are the fixed one-day fasts: Epiphany Eve, the Beheading of
// John the Baptist and the Exaltation of the Cross.
var singleDayFasts = [][2]int{
	{1, 18},
	{9, 11},
	{9, 27},
}

// fixedRange is a pre-parsed month-day range from the dataset.
type fixedRange struct {
	startMonth, startDay int
	endMonth, endDay     int
}

// Service answers calendar queries against a static dataset plus the
// Easter-relative rules. It is an explicitly constructed instance: all state
// is immutable after New except the Easter cache, so concurrent readers need
// no locking.
type Service struct {
	data    Dataset
	easter  *EasterCalculator
	periods []fixedRange
}

// New creates a calendar service over the given dataset. Malformed fasting
// period entries are logged and skipped; everything else keeps working.
func New(data Dataset) *Service {
	s := &Service{
		data:   data,
		easter: NewEasterCalculator(),
	}
	for _, p := range data.FastingPeriods {
		if p.StartVariable {
			// Easter-relative fasts are resolved in code.
			continue
		}
		sm, sd, err1 := parseMonthDay(p.StartDate)
		em, ed, err2 := parseMonthDay(p.EndDate)
		if err1 != nil || err2 != nil {
			log.Printf("calendar: skipping fasting period %q: bad range %q..%q", p.Name, p.StartDate, p.EndDate)
			continue
		}
		s.periods = append(s.periods, fixedRange{sm, sd, em, ed})
	}
	return s
}

// Easter returns the (cached) Easter date for a year.
func (s *Service) Easter(year int) time.Time {
	return s.easter.Date(year)
}

// DescribeDay classifies a date. Priority order: fixed holiday, movable feast,
// saint day, regular day. First match wins; every branch still evaluates the
// fasting predicate.
func (s *Service) DescribeDay(d time.Time) Day {
	d = midnight(d)
	key := monthDayKey(d)

	for _, h := range s.data.Holidays {
		if h.Date == key && !h.Movable {
			return Day{
				Title:       h.Title,
				Type:        h.Type,
				Category:    h.Category,
				Description: h.Description,
				Fast:        s.IsFastingDay(d),
				WeekLabel:   s.weekLabel(d),
			}
		}
	}

	if day, ok := s.movableFeast(d); ok {
		return day
	}

	if name, ok := s.data.SaintDays[key]; ok {
		return Day{
			Title:       name,
			Type:        "День памяти святого",
			Category:    CategorySaint,
			Description: "В этот день Православная Церковь празднует память: " + name,
			Fast:        s.IsFastingDay(d),
		}
	}

	return Day{
		Title:       "Обычный день",
		Type:        "Рядовой день",
		Category:    CategoryRegular,
		Description: "Обычный день церковного календаря. Совершаются повседневные богослужения.",
		Fast:        s.IsFastingDay(d),
		WeekLabel:   s.weekLabel(d),
	}
}

func (s *Service) movableFeast(d time.Time) (Day, bool) {
	offset := daysBetween(s.Easter(d.Year()), d)
	def, ok := movableFeasts[offset]
	if !ok {
		return Day{}, false
	}
	day := def
	day.Movable = true
	day.EasterOffset = &offset
	day.Fast = s.IsFastingDay(d)
	day.WeekLabel = s.weekLabel(d)
	return day, true
}

// weekLabel names the liturgical week, Sundays only.
func (s *Service) weekLabel(d time.Time) string {
	if d.Weekday() != time.Sunday {
		return ""
	}
	return weekNames[daysBetween(s.Easter(d.Year()), d)]
}

// IsFastingDay reports whether a date is a fasting day. The rules compose as
// a disjunction whose order mirrors how the tradition layers them: a
// multi-day fast overrides the weekly rule entirely, and a feast week
// suspends the routine Wednesday/Friday fast.
func (s *Service) IsFastingDay(d time.Time) bool {
	d = midnight(d)

	if s.inFastingPeriod(d) {
		return true
	}

	if wd := d.Weekday(); wd == time.Wednesday || wd == time.Friday {
		if !s.inNonFastingWeek(d) {
			return true
		}
	}

	return s.isSingleDayFast(d)
}

func (s *Service) inFastingPeriod(d time.Time) bool {
	month, day := int(d.Month()), d.Day()

	for _, p := range s.periods {
		switch {
		case p.startMonth > p.endMonth:
			// Wraps across the year boundary (the Nativity fast).
			if (month == p.startMonth && day >= p.startDay) ||
				(month == p.endMonth && day <= p.endDay) ||
				month > p.startMonth || month < p.endMonth {
				return true
			}
		case p.startMonth == p.endMonth:
			if month == p.startMonth && day >= p.startDay && day <= p.endDay {
				return true
			}
		default:
			if (p.startMonth < month && month < p.endMonth) ||
				(month == p.startMonth && day >= p.startDay) ||
				(month == p.endMonth && day <= p.endDay) {
				return true
			}
		}
	}

	if s.inGreatLent(d) {
		return true
	}
	return s.inApostlesFast(d)
}

// inGreatLent covers the 48 days ending the day before Easter.
func (s *Service) inGreatLent(d time.Time) bool {
	easter := s.Easter(d.Year())
	return between(d, easter.AddDate(0, 0, -48), easter.AddDate(0, 0, -1))
}

// inApostlesFast covers the Apostles' (Peter's) Fast: from the 8th day after
// Pentecost through July 12 of the same year.
func (s *Service) inApostlesFast(d time.Time) bool {
	easter := s.Easter(d.Year())
	trinity := easter.AddDate(0, 0, 49)
	start := trinity.AddDate(0, 0, 8)
	end := time.Date(d.Year(), time.July, 12, 0, 0, 0, 0, time.UTC)
	return between(d, start, end)
}

// inNonFastingWeek reports whether the routine Wednesday/Friday fast is
// suspended for this date: Yuletide, the two pre-Lent continuous weeks,
// Bright Week and Trinity Week.
func (s *Service) inNonFastingWeek(d time.Time) bool {
	easter := s.Easter(d.Year())

	weeks := [][2]time.Time{
		{time.Date(d.Year(), time.January, 7, 0, 0, 0, 0, time.UTC), time.Date(d.Year(), time.January, 18, 0, 0, 0, 0, time.UTC)},
		{easter.AddDate(0, 0, -70), easter.AddDate(0, 0, -64)},
		{easter.AddDate(0, 0, -56), easter.AddDate(0, 0, -50)},
		{easter, easter.AddDate(0, 0, 7)},
		{easter.AddDate(0, 0, 49), easter.AddDate(0, 0, 56)},
	}

	for _, w := range weeks {
		if between(d, w[0], w[1]) {
			return true
		}
	}
	return false
}

func (s *Service) isSingleDayFast(d time.Time) bool {
	for _, f := range singleDayFasts {
		if int(d.Month()) == f[0] && d.Day() == f[1] {
			return true
		}
	}
	return false
}

// MonthCalendar returns one entry per day of the month, in date order.
func (s *Service) MonthCalendar(year int, month time.Month) []MonthDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var days []MonthDay
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		days = append(days, MonthDay{
			Date:      d,
			Day:       d.Day(),
			Weekday:   wd,
			Info:      s.DescribeDay(d),
			IsWeekend: wd == time.Saturday || wd == time.Sunday,
			Fast:      s.IsFastingDay(d),
		})
	}
	return days
}

// UpcomingHolidays scans the next days starting at from and returns the
// significant feasts only (pascha, great and major categories).
func (s *Service) UpcomingHolidays(from time.Time, days int) []Upcoming {
	from = midnight(from)

	var upcoming []Upcoming
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		info := s.DescribeDay(d)
		switch info.Category {
		case CategoryPascha, CategoryGreat, CategoryMajor:
			upcoming = append(upcoming, Upcoming{Date: d, Info: info})
		}
	}
	return upcoming
}

// midnight truncates a time to its civil date in UTC.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b; both must be midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// between reports start <= d <= end.
func between(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// monthDayKey formats a date as the dataset's "MM-DD" lookup key.
func monthDayKey(d time.Time) string {
	return d.Format("01-02")
}

// parseMonthDay splits a "MM-DD" dataset key.
func parseMonthDay(s string) (month, day int, err error) {
	before, after, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, errBadMonthDay(s)
	}
	month, err = strconv.Atoi(before)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errBadMonthDay(s)
	}
	day, err = strconv.Atoi(after)
	if err != nil || day < 1 || day > 31 {
		return 0, 0, errBadMonthDay(s)
	}
	return month, day, nil
}

type errBadMonthDay string

func (e errBadMonthDay) Error() string {
	return "invalid month-day value: " + strconv.Quote(string(e))
}
