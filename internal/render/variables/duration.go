package variables

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration labels are operator-entered free text of the form
// "N day(s) M hour(s) K min" with any subset of units present, e.g.
// "2 hours", "1 day 2 hours 30 min", "45 min".

const minutesPerDay = 24 * 60

// ParseDurationLabel parses a duration label into total minutes. The second
// return value is false when no recognizable number/unit pair was found.
func ParseDurationLabel(label string) (int, bool) {
	fields := strings.Fields(strings.ToLower(label))

	total := 0
	matched := false
	for i := 0; i+1 < len(fields); i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			continue
		}

		switch unit := fields[i+1]; {
		case strings.HasPrefix(unit, "day"):
			total += n * minutesPerDay
			matched = true
		case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"):
			total += n * 60
			matched = true
		case strings.HasPrefix(unit, "min"):
			total += n
			matched = true
		}
	}

	return total, matched
}

// FormatDurationLabel renders minutes back into the label grammar.
func FormatDurationLabel(minutes int) string {
	if minutes <= 0 {
		return "0 min"
	}

	days := minutes / minutesPerDay
	hours := (minutes % minutesPerDay) / 60
	mins := minutes % 60

	var parts []string
	if days == 1 {
		parts = append(parts, "1 day")
	} else if days > 1 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours == 1 {
		parts = append(parts, "1 hour")
	} else if hours > 1 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}

	return strings.Join(parts, " ")
}
