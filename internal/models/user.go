package models

import (
	"errors"
	"fmt"
	"time"
)

// Account roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// SavedSearch is a buyer-authored standing query over listing attributes.
// Empty Areas or Keywords match every listing.
type SavedSearch struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Areas        []string  `json:"areas" yaml:"areas"`
	MinPrice     *float64  `json:"min_price,omitempty" yaml:"min_price"`
	MaxPrice     *float64  `json:"max_price,omitempty" yaml:"max_price"`
	MinBedrooms  *int      `json:"min_bedrooms,omitempty" yaml:"min_bedrooms"`
	MinBathrooms *float64  `json:"min_bathrooms,omitempty" yaml:"min_bathrooms"`
	Keywords     []string  `json:"keywords" yaml:"keywords"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// Validate checks that the search has a name and that every numeric bound is
// non-negative.
func (s SavedSearch) Validate() error {
	if s.Name == "" {
		return errors.New("saved search name is required")
	}
	if s.MinPrice != nil && *s.MinPrice < 0 {
		return fmt.Errorf("saved search %q: min_price must be non-negative", s.Name)
	}
	if s.MaxPrice != nil && *s.MaxPrice < 0 {
		return fmt.Errorf("saved search %q: max_price must be non-negative", s.Name)
	}
	if s.MinBedrooms != nil && *s.MinBedrooms < 0 {
		return fmt.Errorf("saved search %q: min_bedrooms must be non-negative", s.Name)
	}
	if s.MinBathrooms != nil && *s.MinBathrooms < 0 {
		return fmt.Errorf("saved search %q: min_bathrooms must be non-negative", s.Name)
	}
	return nil
}

// User is an account as seen by the notification pipeline.
type User struct {
	ID            string        `json:"id" yaml:"id"`
	FullName      string        `json:"full_name" yaml:"full_name"`
	Email         string        `json:"email" yaml:"email"`
	Role          string        `json:"role" yaml:"role"`
	Company       string        `json:"company,omitempty" yaml:"company"`
	SavedSearches []SavedSearch `json:"saved_searches" yaml:"saved_searches"`
}

// Summary returns the participant view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
}

// DisplayName returns the full name, falling back to the email and then to
// a generic greeting.
func (u User) DisplayName() string {
	return u.Summary().DisplayName()
}
