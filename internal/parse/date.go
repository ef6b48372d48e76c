package parse

import (
	"fmt"
	"strconv"
	"time"
)

// ExtractDate scans every date-shaped match in lines and returns the latest
// real calendar date whose year lies in [now.Year()-2, now.Year()+1],
// formatted DD.MM.YYYY.
func ExtractDate(p *Patterns, lines []string, now time.Time) *string {
	currentYear := now.Year()
	var best time.Time
	found := false

	for _, line := range lines {
		for _, re := range p.Dates {
			for _, m := range re.FindAllString(line, -1) {
				d, ok := interpretDate(p, m, currentYear)
				if !ok {
					continue
				}
				if !found || d.After(best) {
					best, found = d, true
				}
			}
		}
	}
	if !found {
		return nil
	}
	s := fmt.Sprintf("%02d.%02d.%04d", best.Day(), int(best.Month()), best.Year())
	return &s
}

// HasDateShape reports whether line carries anything date-like.
func HasDateShape(p *Patterns, line string) bool {
	for _, re := range p.Dates {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func interpretDate(p *Patterns, match string, currentYear int) (time.Time, bool) {
	parts := p.DateSeparator.Split(match, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, s := range parts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var day, month, year int
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		// always day first; an impossible month rejects the match
		day, month, year = nums[0], nums[1], expandYear(nums[2], currentYear)
	}

	if year < currentYear-2 || year > currentYear+1 {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(y, currentYear int) int {
	if y >= 100 {
		return y
	}
	if y+2000 <= currentYear+1 {
		return 2000 + y
	}
	return 1900 + y
}
