// Package civil converts instants into calendar dates and wall-clock times of
// one fixed named timezone. Nothing here consults time.Local, so results do
// not depend on the host's timezone setting.
package civil

import (
	"fmt"
	"time"

	// Bundled zone database so a named zone resolves on hosts without
	// /usr/share/zoneinfo.
	_ "time/tzdata"
)

// MinutesPerDay is the length of a civil day in the layout's minute scale.
const MinutesPerDay = 24 * 60

const dateLayout = "2006-01-02"

// Civil is a broken-down wall-clock reading in the clock's zone.
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Date returns the calendar date part of c.
func (c Civil) Date() Date {
	return Date{Year: c.Year, Month: c.Month, Day: c.Day}
}

// Minutes returns the minute of day including the seconds as a fraction.
func (c Civil) Minutes() float64 {
	return float64(c.Hour*60+c.Minute) + float64(c.Second)/60
}

// Date is a calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("civil: invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// noon anchors date arithmetic in UTC, where every day has 24 hours.
func (d Date) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.noon().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) Weekday() time.Weekday {
	return d.noon().Weekday()
}

// ISOWeekday numbers Monday as 1 through Sunday as 7.
func (d Date) ISOWeekday() int {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clock performs every instant/civil conversion in one location.
type Clock struct {
	loc *time.Location
}

// NewClock returns a Clock for loc; a nil loc means UTC.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc}
}

// LoadClock resolves an IANA zone name such as "Asia/Seoul".
func LoadClock(name string) (Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Clock{}, fmt.Errorf("civil: load location %q: %w", name, err)
	}
	return NewClock(loc), nil
}

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// ToCivil reads t on the clock's wall.
func (c Clock) ToCivil(t time.Time) Civil {
	lt := t.In(c.Location())
	return Civil{
		Year:   lt.Year(),
		Month:  lt.Month(),
		Day:    lt.Day(),
		Hour:   lt.Hour(),
		Minute: lt.Minute(),
		Second: lt.Second(),
	}
}

// DateOf returns the civil date containing t.
func (c Clock) DateOf(t time.Time) Date {
	return c.ToCivil(t).Date()
}

// Midnight returns the first instant of d. Days shortened or lengthened by
// DST still start here and end at the next date's Midnight.
func (c Clock) Midnight(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, c.Location())
}

// DayBounds returns the half-open instant range [start, end) of d.
func (c Clock) DayBounds(d Date) (time.Time, time.Time) {
	return c.Midnight(d), c.Midnight(d.AddDays(1))
}

// At returns the instant at the given wall-clock minute of d. Minute 1440
// is the next day's midnight.
func (c Clock) At(d Date, minute int) time.Time {
	// time.Date normalises overflowing fields on the wall clock.
	return time.Date(d.Year, d.Month, d.Day, 0, minute, 0, 0, c.Location())
}

// MinuteOfDay returns the whole wall-clock minute of t within its civil day.
func (c Clock) MinuteOfDay(t time.Time) int {
	cv := c.ToCivil(t)
	return cv.Hour*60 + cv.Minute
}

// AddDays moves t by n civil days keeping its wall-clock time, so a DST
// change inside the span does not shift the resulting time of day.
func (c Clock) AddDays(t time.Time, n int) time.Time {
	lt := t.In(c.Location())
	return time.Date(lt.Year(), lt.Month(), lt.Day()+n, lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), c.Location())
}
