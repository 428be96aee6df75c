package seats

import (
	"strings"

	"travelease/models"
)

// FilterBuses keeps buses whose name, origin or destination contains query,
// ignoring case. An empty query keeps everything.
func FilterBuses(buses []models.Bus, query string) []models.Bus {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Bus, 0, len(buses))
	for _, b := range buses {
		if q == "" ||
			strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(b.Origin), q) ||
			strings.Contains(strings.ToLower(b.Destination), q) {
			out = append(out, b)
		}
	}
	return out
}
