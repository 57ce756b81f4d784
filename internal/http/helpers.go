package http

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
)

var templateFuncs = template.FuncMap{
	"half": func(v int) int { return v / 2 },
	"add":  func(a, b int) int { return a + b },
	"sub":  func(a, b int) int { return a - b },
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseChartSize reads w and h from the query, clamped to a sane range.
func ParseChartSize(q url.Values, defW, defH int) (int, int) {
	return clampInt(q.Get("w"), defW), clampInt(q.Get("h"), defH)
}

func clampInt(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	switch {
	case v < 100:
		return 100
	case v > 2000:
		return 2000
	}
	return v
}
