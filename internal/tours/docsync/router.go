package docsync

import (
	"strings"

	"tour-sync/internal/common/config"
)

// Route is one collection rule. A title matches when it contains any keyword.
type Route struct {
	Name         string
	Keywords     []string
	CollectionID string
}

// Router picks the destination collection for a new document. Rules are tried in
// order and the first match wins.
type Router struct {
	routes   []Route
	fallback Route
}

func NewRouter(cfg config.CollectionsConfig) *Router {
	return &Router{
		routes: []Route{
			{Name: "day_tours", Keywords: []string{"Day"}, CollectionID: orDefault(cfg.DayTours)},
			{Name: "colorado", Keywords: []string{"Colorado", "Durango"}, CollectionID: orDefault(cfg.Colorado)},
			{Name: "arizona", Keywords: []string{"Arizona"}, CollectionID: orDefault(cfg.Arizona)},
			{Name: "rentals", Keywords: []string{"Rental", "Service"}, CollectionID: orDefault(cfg.Rentals)},
		},
		fallback: Route{Name: "utah", CollectionID: orDefault(cfg.Utah)},
	}
}

// Route returns the rule that applies to title.
func (r *Router) Route(title string) Route {
	for _, route := range r.routes {
		for _, kw := range route.Keywords {
			if strings.Contains(title, kw) {
				return route
			}
		}
	}
	return r.fallback
}

func orDefault(id string) string {
	if id == "" {
		return config.DefaultCollection
	}
	return id
}
