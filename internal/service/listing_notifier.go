// Package service implements the business logic between the HTTP handlers,
// the event bus and the notification package: listing fan-out, conversation
// notices and account maintenance.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/afcpln/listingnet/internal/dedupe"
	"github.com/afcpln/listingnet/internal/matcher"
	"github.com/afcpln/listingnet/internal/metrics"
	"github.com/afcpln/listingnet/internal/models"
)

const (
	defaultMaxConcurrency  = 8
	defaultDeliveryTimeout = 30 * time.Second
)

// BuyerSource returns the buyers whose saved searches are evaluated against
// each published listing.
type BuyerSource interface {
	FindUsersWithSavedSearches(ctx context.Context) ([]*models.User, error)
}

// ListingDeliverer sends one listing match notification.
type ListingDeliverer interface {
	SendListingMatchNotification(ctx context.Context, buyer models.User, listing models.Listing, search models.SavedSearch) error
}

// Candidate is one (buyer, saved search) pair that matched a listing.
type Candidate struct {
	User    models.User
	Search  models.SavedSearch
	Listing models.Listing
}

// FanoutResult summarizes one publish event.
type FanoutResult struct {
	Matched   int
	Delivered int
	Failed    int
	// Duplicate is true when the listing had already been fanned out.
	Duplicate bool
}

// ListingNotifierOption configures a ListingNotifier.
type ListingNotifierOption func(*ListingNotifier)

// WithMaxConcurrency bounds the number of deliveries in flight.
func WithMaxConcurrency(n int) ListingNotifierOption {
	return func(l *ListingNotifier) {
		if n > 0 {
			l.maxConcurrency = n
		}
	}
}

// WithDeliveryTimeout bounds each individual delivery. Deliveries of one
// listing never share a deadline.
func WithDeliveryTimeout(d time.Duration) ListingNotifierOption {
	return func(n *ListingNotifier) {
		if d > 0 {
			n.deliveryTimeout = d
		}
	}
}

// WithDedupeGuard skips listings the guard has already seen.
func WithDedupeGuard(g dedupe.Guard) ListingNotifierOption {
	return func(n *ListingNotifier) { n.guard = g }
}

// WithFanoutMetrics records match and failure counts on m.
func WithFanoutMetrics(m *metrics.Metrics) ListingNotifierOption {
	return func(n *ListingNotifier) { n.metrics = m }
}

// ListingNotifier fans a published listing out to every buyer whose saved
// search matches it.
type ListingNotifier struct {
	buyers         BuyerSource
	deliverer      ListingDeliverer
	logger         *slog.Logger
	guard          dedupe.Guard
	metrics        *metrics.Metrics
	maxConcurrency  int
	deliveryTimeout time.Duration
}

// NewListingNotifier creates a ListingNotifier.
func NewListingNotifier(buyers BuyerSource, deliverer ListingDeliverer, logger *slog.Logger, opts ...ListingNotifierOption) *ListingNotifier {
	n := &ListingNotifier{
		buyers:         buyers,
		deliverer:      deliverer,
		logger:         logger,
		maxConcurrency:  defaultMaxConcurrency,
		deliveryTimeout: defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FindCandidates returns one Candidate per saved search that matches listing.
// Accounts that are not buyers are ignored.
func FindCandidates(buyers []*models.User, listing models.Listing) []Candidate {
	var out []Candidate
	for _, u := range buyers {
		if u == nil || (u.Role != "" && u.Role != models.RoleUser) {
			continue
		}
		for _, s := range u.SavedSearches {
			if matcher.Matches(listing, s) {
				out = append(out, Candidate{User: *u, Search: s, Listing: listing})
			}
		}
	}
	return out
}

// NotifyForNewListing notifies every matching buyer. Deliveries run
// concurrently and independently: one failing delivery never stops the
// others, and no error reaches the caller. The result is informational.
func (n *ListingNotifier) NotifyForNewListing(ctx context.Context, listing models.Listing) FanoutResult {
	log := n.logger.With("listing_id", listing.ID)

	buyers, err := n.buyers.FindUsersWithSavedSearches(ctx)
	if err != nil {
		log.Error("loading buyers with saved searches failed", "error", err)
		return FanoutResult{}
	}

	// Marked only once buyers loaded, so a redelivery after a store error
	// is still processed.
	if n.guard != nil && listing.ID != "" {
		first, err := n.guard.FirstSeen(ctx, "listing-published:"+listing.ID)
		switch {
		case err != nil:
			log.Warn("dedupe check failed, processing listing anyway", "error", err)
		case !first:
			log.Info("listing already fanned out, skipping")
			return FanoutResult{Duplicate: true}
		}
	}

	candidates := FindCandidates(buyers, listing)
	result := FanoutResult{Matched: len(candidates)}
	if len(candidates) == 0 {
		log.Debug("no saved searches matched listing", "buyers", len(buyers))
		return result
	}

	p := pool.NewWithResults[error]().WithMaxGoroutines(n.maxConcurrency)
	for _, c := range candidates {
		p.Go(func() error {
			return n.deliver(ctx, c)
		})
	}
	for _, err := range p.Wait() {
		if err != nil {
			result.Failed++
		} else {
			result.Delivered++
		}
	}

	n.metrics.ObserveFanout(result.Matched, result.Failed)
	log.Info("listing fan-out complete",
		"matched", result.Matched, "delivered", result.Delivered, "failed", result.Failed)
	return result
}

// deliver sends one notification under its own timeout. A panic is converted
// into an error for this candidate only.
func (n *ListingNotifier) deliver(ctx context.Context, c Candidate) (err error) {
	ctx, cancel := context.WithTimeout(ctx, n.deliveryTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic delivering listing match: %v", r)
		}
		if err != nil {
			n.logger.Error("listing match notification failed",
				"listing_id", c.Listing.ID, "user_id", c.User.ID, "search", c.Search.Name, "error", err)
		}
	}()
	return n.deliverer.SendListingMatchNotification(ctx, c.User, c.Listing, c.Search)
}
