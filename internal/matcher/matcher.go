// Package matcher decides whether a published listing satisfies a buyer's
// saved search. Every function here is pure and total.
package matcher

import (
	"math"
	"strings"

	"github.com/afcpln/listingnet/internal/models"
)

// Matches reports whether l satisfies every constraint of s.
func Matches(l models.Listing, s models.SavedSearch) bool {
	return MatchesArea(l, s.Areas) &&
		MatchesPrice(l, s) &&
		MatchesBedrooms(l, s) &&
		MatchesBathrooms(l, s) &&
		MatchesKeywords(l, s.Keywords)
}

// MatchesArea is true when areas is empty or when the listing area or its
// address city equals one entry, ignoring case and surrounding space.
func MatchesArea(l models.Listing, areas []string) bool {
	wanted := normalizeAll(areas)
	if len(wanted) == 0 {
		return true
	}
	area := normalize(l.Area)
	city := normalize(l.City())
	for _, w := range wanted {
		if (area != "" && w == area) || (city != "" && w == city) {
			return true
		}
	}
	return false
}

// MatchesPrice checks the optional min and max price bounds. A listing
// without a price fails any bound that is set.
func MatchesPrice(l models.Listing, s models.SavedSearch) bool {
	if s.MinPrice == nil && s.MaxPrice == nil {
		return true
	}
	price, ok := finite(l.Price)
	if !ok {
		return false
	}
	if lo, set := finite(s.MinPrice); set && price < lo {
		return false
	}
	if hi, set := finite(s.MaxPrice); set && price > hi {
		return false
	}
	return true
}

// MatchesBedrooms checks the optional minimum bedroom count.
func MatchesBedrooms(l models.Listing, s models.SavedSearch) bool {
	if s.MinBedrooms == nil {
		return true
	}
	if l.Bedrooms == nil {
		return false
	}
	return *l.Bedrooms >= *s.MinBedrooms
}

// MatchesBathrooms checks the optional minimum bathroom count.
func MatchesBathrooms(l models.Listing, s models.SavedSearch) bool {
	floor, set := finite(s.MinBathrooms)
	if !set {
		return true
	}
	baths, ok := finite(l.Bathrooms)
	if !ok {
		return false
	}
	return baths >= floor
}

// MatchesKeywords is true when keywords is empty or when at least one keyword
// is a case-insensitive substring of the title followed by the description.
// Keywords are trimmed and blank entries are ignored, so a list holding only
// blanks matches every listing. Areas are normalized the same way.
func MatchesKeywords(l models.Listing, keywords []string) bool {
	wanted := normalizeAll(keywords)
	if len(wanted) == 0 {
		return true
	}
	haystack := strings.ToLower(l.Title + " " + l.Description)
	for _, k := range wanted {
		if strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// normalizeAll lower-cases and trims values, dropping blanks.
func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// finite dereferences v, treating nil and NaN as absent.
func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}
