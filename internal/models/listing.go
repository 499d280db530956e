// Package models holds the domain types shared by the notification pipeline:
// listings, buyers with their saved searches, conversations and audit entries.
package models

import "strings"

// Address is the structured street address of a listing.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Listing is the snapshot of a published listing used for matching and for
// building notification content. Numeric fields are optional; a nil value
// means the attribute was not supplied.
type Listing struct {
	ID          string   `json:"id"`
	AgentID     string   `json:"agent_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	SquareFeet  *int     `json:"square_feet,omitempty"`
	Area        string   `json:"area"`
	Address     *Address `json:"address,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// City returns the address city, or "" when the listing carries no address.
func (l Listing) City() string {
	if l.Address == nil {
		return ""
	}
	return l.Address.City
}

// Location renders the area followed by "city, state" when present, skipping
// any empty piece.
func (l Listing) Location() string {
	parts := make([]string, 0, 2)
	if area := strings.TrimSpace(l.Area); area != "" {
		parts = append(parts, area)
	}
	if l.Address != nil {
		cityState := joinNonEmpty(", ", l.Address.City, l.Address.State)
		if cityState != "" {
			parts = append(parts, cityState)
		}
	}
	return strings.Join(parts, " - ")
}

// FormattedAddress renders "street, city, state postal" omitting missing parts.
func (l Listing) FormattedAddress() string {
	if l.Address == nil {
		return ""
	}
	a := l.Address
	return joinNonEmpty(", ", a.Street, a.City, joinNonEmpty(" ", a.State, a.PostalCode))
}

func joinNonEmpty(sep string, values ...string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

// Float64 returns a pointer to v. It exists for building listings and
// searches in literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
