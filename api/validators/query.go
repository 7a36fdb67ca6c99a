package validators

import (
	"net/http"
	"strconv"
	"strings"
)

// ParseQueryInt reads an integer query parameter, falling back to defaultVal
// and clamping into [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
