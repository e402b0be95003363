package poi

import (
	"strings"

	"github.com/caffind/caffind/internal/common"
)

// fallbackDescription is used when a shop carries no usable tags at all.
const fallbackDescription = "A cozy spot for coffee nearby."

// fragmentSeparator joins the composed description fragments.
const fragmentSeparator = ". "

// Describe derives a human-readable description from OSM-style tags.
//
// Precedence: an explicit description tag wins verbatim; otherwise a string is
// composed from address, cuisine, connectivity/seating, and opening hours
// fragments; if nothing usable exists, a generic fallback is returned.
func Describe(tags map[string]string) string {
	if d := tags["description"]; strings.TrimSpace(d) != "" {
		return d
	}
	if d := tags["short_description"]; strings.TrimSpace(d) != "" {
		return d
	}

	var fragments []string

	if addr := addressFragment(tags); addr != "" {
		fragments = append(fragments, addr)
	}
	if cuisine := cuisineFragment(tags["cuisine"]); cuisine != "" {
		fragments = append(fragments, cuisine)
	}
	if common.HasAny(tags["internet_access"], "wlan", "yes", "terminal") {
		fragments = append(fragments, "Wi-Fi available")
	}
	if common.EqualsAny(tags["outdoor_seating"], "yes", "terrace", "garden") {
		fragments = append(fragments, "Outdoor seating")
	}
	if hours := strings.TrimSpace(tags["opening_hours"]); hours != "" {
		fragments = append(fragments, "Open "+hours)
	}

	if len(fragments) == 0 {
		return fallbackDescription
	}
	return strings.Join(fragments, fragmentSeparator)
}

func addressFragment(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return ""
	}
	addr := street
	if num := strings.TrimSpace(tags["addr:housenumber"]); num != "" {
		addr = addr + " " + num
	}
	return "Located at " + addr
}

func cuisineFragment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, ";")
	cuisines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ReplaceAll(p, "_", " "))
		if p != "" {
			cuisines = append(cuisines, p)
		}
	}
	if len(cuisines) == 0 {
		return ""
	}
	return "Serves " + strings.Join(cuisines, ", ")
}
