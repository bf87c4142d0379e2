package orchestration

import (
	"fmt"
	"strings"
)

// Route names the pipeline a query is sent to.
type Route string

const (
	RouteAuto    Route = "auto"
	RouteGeneral Route = "general"
	RouteWeather Route = "weather"
)

// ParseRoute validates a --agent flag value.
func ParseRoute(s string) (Route, error) {
	switch r := Route(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RouteAuto, nil
	case RouteAuto, RouteGeneral, RouteWeather:
		return r, nil
	}
	return "", fmt.Errorf("unknown agent %q (use auto, general or weather)", s)
}

// DefaultWeatherKeywords trigger the weather agent in auto mode.
var DefaultWeatherKeywords = []string{"weather", "temperature", "forecast", "rain", "sunny", "humidity"}

// Router picks a pipeline by keyword.
type Router struct {
	keywords []string
}

// NewRouter creates a router matching keywords case-insensitively. With
// no keywords it uses DefaultWeatherKeywords.
func NewRouter(keywords ...string) *Router {
	if len(keywords) == 0 {
		keywords = DefaultWeatherKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Router{keywords: lowered}
}

// Route returns RouteWeather when query mentions any keyword, else
// RouteGeneral.
func (r *Router) Route(query string) Route {
	q := strings.ToLower(query)
	for _, k := range r.keywords {
		if strings.Contains(q, k) {
			return RouteWeather
		}
	}
	return RouteGeneral
}
