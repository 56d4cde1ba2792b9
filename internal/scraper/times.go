package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// timeHintSelector targets elements whose identifying attributes suggest a
// countdown or clock. These are scanned before the full body text so that
// clock-like strings elsewhere on the page don't win first.
const timeHintSelector = `[class*="time"], [id*="time"], [class*="countdown"], [id*="countdown"], [class*="timer"], [id*="timer"], [class*="clock"], [id*="clock"]`

var (
	dayCountdownRe  = regexp.MustCompile(`(?i)(\d+)\s*d(?:ay)?s?\s+(\d{1,2}):(\d{2}):(\d{2})`)
	longCountdownRe = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})$`)
	bareCountdownRe = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
	looseClockRe    = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})`)

	endingPhraseRe = regexp.MustCompile(`(?i)ENDING\s+(SUNDAY|MONDAY|TUESDAY|WEDNESDAY|THURSDAY|FRIDAY|SATURDAY)\s+(NIGHT|EVENING|MORNING|AFTERNOON)`)

	isoDateRe   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[T\s](\d{2}):(\d{2}):(\d{2})`)
	monthDateRe = regexp.MustCompile(`(?i)(Dec|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov)\s+(\d{1,2})\s+(\d{1,2}):(\d{2})\s*(am|pm)`)
	slashDateRe = regexp.MustCompile(`(?i)(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2}):(\d{2})\s*(AM|PM)?`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// TimeResolver converts countdown text and closing-time phrases found on a
// page into absolute timestamps. The clock is injectable for tests.
type TimeResolver struct {
	now func() time.Time
}

// NewTimeResolver returns a resolver on the wall clock.
func NewTimeResolver() *TimeResolver {
	return &TimeResolver{now: time.Now}
}

// Resolve derives the closing time from the document. Resolution order:
// countdown text (hinted elements first, then body text), an "ENDING
// <WEEKDAY> <TIME-OF-DAY>" phrase in the page title, and finally absolute
// date patterns in the body. Returns false when nothing matches.
func (r *TimeResolver) Resolve(doc *goquery.Document) (time.Time, bool) {
	if d, ok := r.findCountdown(doc); ok {
		return r.now().Add(d), true
	}

	title := doc.Find("title").Text()
	if t, ok := r.resolveEndingPhrase(title); ok {
		return t, true
	}

	bodyText := doc.Find("body").Text()
	if t, ok := r.resolveAbsoluteDate(bodyText); ok {
		return t, true
	}

	return time.Time{}, false
}

// findCountdown locates time-remaining text and converts it to a duration.
func (r *TimeResolver) findCountdown(doc *goquery.Document) (time.Duration, bool) {
	var found time.Duration
	ok := false

	doc.Find(timeHintSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if d, matched := parseCountdown(text); matched {
			found, ok = d, true
			return false
		}
		return true
	})
	if ok {
		return found, true
	}

	// Broader fallback over the whole page text.
	bodyText := doc.Find("body").Text()
	if m := dayCountdownRe.FindStringSubmatch(bodyText); m != nil {
		return countdownDuration(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])), true
	}

	// Clock strings that are the time component of an absolute datetime are
	// not countdowns; leave them for the absolute-date pass.
	isoRanges := isoDateRe.FindAllStringIndex(bodyText, -1)
	for _, loc := range looseClockRe.FindAllStringSubmatchIndex(bodyText, -1) {
		if withinRanges(loc[0], isoRanges) {
			continue
		}
		hours := atoi(bodyText[loc[2]:loc[3]])
		minutes := atoi(bodyText[loc[4]:loc[5]])
		seconds := atoi(bodyText[loc[6]:loc[7]])
		if hours < 100 && minutes < 60 && seconds < 60 {
			return countdownDuration(0, hours, minutes, seconds), true
		}
	}

	return 0, false
}

func withinRanges(pos int, ranges [][]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// parseCountdown handles a single element's text: "2d 03:00:00",
// overflowed-hours "25:10:05", and plain "12:34:56".
func parseCountdown(text string) (time.Duration, bool) {
	if m := dayCountdownRe.FindStringSubmatch(text); m != nil {
		return countdownDuration(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])), true
	}
	if m := longCountdownRe.FindStringSubmatch(text); m != nil {
		hours, minutes, seconds := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if minutes < 60 && seconds < 60 {
			return countdownDuration(0, hours, minutes, seconds), true
		}
	}
	if m := bareCountdownRe.FindStringSubmatch(text); m != nil {
		hours, minutes, seconds := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if minutes < 60 && seconds < 60 {
			return countdownDuration(0, hours, minutes, seconds), true
		}
	}
	return 0, false
}

func countdownDuration(days, hours, minutes, seconds int) time.Duration {
	// Overflowed hours fold into whole days.
	days += hours / 24
	hours = hours % 24
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
}

// resolveEndingPhrase handles "ENDING FRIDAY NIGHT" style titles. The named
// day is always strictly after today; a listing phrased this way cannot be
// ending today, so a same-day match rolls forward a full week.
func (r *TimeResolver) resolveEndingPhrase(title string) (time.Time, bool) {
	m := endingPhraseRe.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}, false
	}

	target := weekdays[strings.ToLower(m[1])]
	now := r.now()

	daysUntil := int(target - now.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	day := now.AddDate(0, 0, daysUntil)

	var closing time.Time
	switch strings.ToLower(m[2]) {
	case "night", "evening":
		closing = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), day.Location())
	case "morning":
		closing = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, day.Location())
	default:
		closing = time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, day.Location())
	}
	return closing, true
}

// resolveAbsoluteDate tries the supported absolute patterns in order and
// returns the first that parses into a valid calendar date.
func (r *TimeResolver) resolveAbsoluteDate(text string) (time.Time, bool) {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		stamp := m[1] + " " + m[2] + ":" + m[3] + ":" + m[4]
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, time.Local); err == nil {
			return t, true
		}
	}

	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		month := months[strings.ToLower(m[1])]
		day, hour, minute := atoi(m[2]), atoi(m[3]), atoi(m[4])
		hour = to24Hour(hour, m[5])
		if t, ok := calendarDate(r.now().Year(), month, day, hour, minute); ok {
			return t, true
		}
	}

	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		month, day, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		hour, minute := atoi(m[4]), atoi(m[5])
		if m[6] != "" {
			hour = to24Hour(hour, m[6])
		}
		if month >= 1 && month <= 12 {
			if t, ok := calendarDate(year, time.Month(month), day, hour, minute); ok {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// calendarDate builds a timestamp and rejects values time.Date would have
// silently normalized, e.g. June 31st.
func calendarDate(year int, month time.Month, day, hour, minute int) (time.Time, bool) {
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, time.Local)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func to24Hour(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
