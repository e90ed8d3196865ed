package triage

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMapsSearchURL is the map-search UI the referral links point at.
const DefaultMapsSearchURL = "https://www.google.com/maps/search"

// HospitalSearchURL builds "<spec> hospital near <city>" centered on the coordinates.
// An empty base falls back to DefaultMapsSearchURL.
func HospitalSearchURL(base string, spec Specialization, city string, lat, lon float64) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultMapsSearchURL
	}
	return fmt.Sprintf("%s/%s+hospital+near+%s/@%s,%s,13z",
		base,
		escapeComponent(string(spec)),
		escapeComponent(city),
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)
}

// escapeComponent percent-encodes every reserved character, so "+" and "@" in a
// city cannot be read as word or coordinate separators.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
