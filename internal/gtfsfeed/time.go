package gtfsfeed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/metrovan/isochrone/internal/models"
)

// ParseTimeToSeconds converts a GTFS HH:MM:SS field to seconds since
// midnight. HH may exceed 23 (the GTFS convention for post-midnight
// service, §6) — callers must not clamp or mod the result. An unparseable
// field returns models.ErrInputMalformed wrapped with the offending value,
// per §4.1 "unparseable fields yield a null that propagates".
func ParseTimeToSeconds(timeStr string) (int, error) {
	if timeStr == "" {
		return 0, fmt.Errorf("%w: empty time field", models.ErrInputMalformed)
	}

	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: invalid time format %q", models.ErrInputMalformed, timeStr)
	}

	hours, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	minutes, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	seconds, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("%w: invalid time format %q", models.ErrInputMalformed, timeStr)
	}
	if minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || hours < 0 {
		return 0, fmt.Errorf("%w: invalid time format %q", models.ErrInputMalformed, timeStr)
	}

	return hours*3600 + minutes*60 + seconds, nil
}
