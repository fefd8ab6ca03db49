package facet

import (
	"strconv"
	"strings"

	"housing-dashboard/internal/models"
)

// Years outside [MinYear, MaxYear] are treated as unknown, which keeps
// year option enumeration bounded.
const (
	MinYear = 0
	MaxYear = 9999
)

// ParseTimeline turns a free-text timeline cell into a closed year interval.
// "2024" gives [2024, 2024] and "2024-2026" gives [2024, 2026]. Anything else,
// including a reversed range or a year outside [MinYear, MaxYear], returns nil.
func ParseTimeline(value string) *models.Interval {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if strings.Count(value, "-") == 1 {
		parts := strings.SplitN(value, "-", 2)
		start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			return newInterval(start, end)
		}
	}

	if year, err := strconv.Atoi(value); err == nil {
		return newInterval(year, year)
	}
	return nil
}

func newInterval(start, end int) *models.Interval {
	if start > end || start < MinYear || end > MaxYear {
		return nil
	}
	return &models.Interval{Start: start, End: end}
}
