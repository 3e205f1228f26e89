package httpmetrics

import "strings"

// OtherRoute labels every path the service does not serve, so scans for
// arbitrary URLs cannot grow the number of series.
const OtherRoute = "other"

var knownRoutes = map[string]struct{}{
	"/":         {},
	"/health":   {},
	"/metrics":  {},
	"/register": {},
	"/login":    {},
	"/me":       {},
}

func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return OtherRoute
}
