package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afcpln/listingnet/internal/dedupe"
	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/service"
	"github.com/afcpln/listingnet/internal/storage/mocks"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingDeliverer captures listing match deliveries.
type recordingDeliverer struct {
	mu       sync.Mutex
	calls    []service.Candidate
	failFor  map[string]error
	panicFor string
	delay    time.Duration

	inFlight    int32
	maxInFlight int32
}

func (d *recordingDeliverer) SendListingMatchNotification(_ context.Context, buyer models.User, listing models.Listing, search models.SavedSearch) error {
	cur := atomic.AddInt32(&d.inFlight, 1)
	defer atomic.AddInt32(&d.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&d.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&d.maxInFlight, prev, cur) {
			break
		}
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	d.mu.Lock()
	d.calls = append(d.calls, service.Candidate{User: buyer, Search: search, Listing: listing})
	d.mu.Unlock()

	if buyer.ID == d.panicFor {
		panic("template exploded")
	}
	return d.failFor[buyer.ID]
}

func (d *recordingDeliverer) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c.User.ID+"/"+c.Search.Name)
	}
	return out
}

func downtownListing() models.Listing {
	return models.Listing{
		ID:        "listing-1",
		Title:     "Modern Loft with Rooftop Deck",
		Price:     models.Float64(450000),
		Bedrooms:  models.Int(2),
		Bathrooms: models.Float64(2),
		Area:      "Downtown",
	}
}

func buyersFixture() []*models.User {
	return []*models.User{
		{
			ID: "b1", Email: "b1@example.com", Role: models.RoleUser,
			SavedSearches: []models.SavedSearch{
				{Name: "Downtown", Areas: []string{"downtown"}},
				{Name: "Cheap", MaxPrice: models.Float64(100000)},
			},
		},
		{
			ID: "b2", Email: "b2@example.com", Role: models.RoleUser,
			SavedSearches: []models.SavedSearch{
				{Name: "Rooftop", Keywords: []string{"rooftop"}},
			},
		},
		{
			ID: "b3", Email: "b3@example.com", Role: models.RoleUser,
			SavedSearches: []models.SavedSearch{
				{Name: "Big", MinBedrooms: models.Int(4)},
			},
		},
		{
			ID: "agent", Email: "agent@example.com", Role: models.RoleAgent,
			SavedSearches: []models.SavedSearch{{Name: "Everything"}},
		},
	}
}

func TestFindCandidates(t *testing.T) {
	got := service.FindCandidates(buyersFixture(), downtownListing())

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.User.ID+"/"+c.Search.Name)
		assert.Equal(t, "listing-1", c.Listing.ID)
	}
	assert.Equal(t, []string{"b1/Downtown", "b2/Rooftop"}, names)
}

func TestFindCandidates_MultipleSearchesOfOneBuyer(t *testing.T) {
	buyers := []*models.User{{
		ID: "b1", Role: models.RoleUser,
		SavedSearches: []models.SavedSearch{{Name: "A"}, {Name: "B", Areas: []string{"Downtown"}}},
	}}
	assert.Len(t, service.FindCandidates(buyers, downtownListing()), 2)
	assert.Empty(t, service.FindCandidates(nil, downtownListing()))
}

func TestListingNotifier_NotifiesEveryMatch(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyersFixture(), nil).Once()
	d := &recordingDeliverer{}

	n := service.NewListingNotifier(store, d, newTestLogger())
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, service.FanoutResult{Matched: 2, Delivered: 2}, res)
	assert.ElementsMatch(t, []string{"b1/Downtown", "b2/Rooftop"}, d.recipients())
	store.AssertExpectations(t)
}

func TestListingNotifier_FailureIsIsolated(t *testing.T) {
	buyers := []*models.User{
		{ID: "ok-1", Role: models.RoleUser, SavedSearches: []models.SavedSearch{{Name: "any"}}},
		{ID: "bad", Role: models.RoleUser, SavedSearches: []models.SavedSearch{{Name: "any"}}},
		{ID: "boom", Role: models.RoleUser, SavedSearches: []models.SavedSearch{{Name: "any"}}},
		{ID: "ok-2", Role: models.RoleUser, SavedSearches: []models.SavedSearch{{Name: "any"}}},
	}
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyers, nil)
	d := &recordingDeliverer{
		failFor:  map[string]error{"bad": errors.New("provider rejected")},
		panicFor: "boom",
	}

	n := service.NewListingNotifier(store, d, newTestLogger())
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, 4, res.Matched)
	assert.Equal(t, 2, res.Delivered)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, d.recipients(), 4)
}

func TestListingNotifier_StoreErrorMeansNoAttempts(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(nil, errors.New("db down"))
	d := &recordingDeliverer{}

	n := service.NewListingNotifier(store, d, newTestLogger())
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, service.FanoutResult{}, res)
	assert.Empty(t, d.recipients())
}

func TestListingNotifier_NoMatches(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyersFixture(), nil)
	d := &recordingDeliverer{}

	listing := models.Listing{ID: "x", Area: "Uptown", Price: models.Float64(900000), Bedrooms: models.Int(1)}
	res := service.NewListingNotifier(store, d, newTestLogger()).NotifyForNewListing(context.Background(), listing)

	assert.Equal(t, service.FanoutResult{}, res)
	assert.Empty(t, d.recipients())
}

func TestListingNotifier_BoundedConcurrency(t *testing.T) {
	var buyers []*models.User
	for i := 0; i < 12; i++ {
		buyers = append(buyers, &models.User{
			ID: string(rune('a' + i)), Role: models.RoleUser,
			SavedSearches: []models.SavedSearch{{Name: "any"}},
		})
	}
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyers, nil)
	d := &recordingDeliverer{delay: 10 * time.Millisecond}

	n := service.NewListingNotifier(store, d, newTestLogger(), service.WithMaxConcurrency(3))
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, 12, res.Delivered)
	assert.LessOrEqual(t, atomic.LoadInt32(&d.maxInFlight), int32(3))
	assert.Greater(t, atomic.LoadInt32(&d.maxInFlight), int32(1))
}

func TestListingNotifier_DedupesRepublishedListing(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyersFixture(), nil).Twice()
	d := &recordingDeliverer{}

	n := service.NewListingNotifier(store, d, newTestLogger(), service.WithDedupeGuard(dedupe.NewMemoryGuard(time.Hour)))
	first := n.NotifyForNewListing(context.Background(), downtownListing())
	second := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, 2, first.Delivered)
	assert.True(t, second.Duplicate)
	assert.Len(t, d.recipients(), 2)
	store.AssertExpectations(t)
}

type failingGuard struct{}

func (failingGuard) FirstSeen(context.Context, string) (bool, error) {
	return false, errors.New("redis unavailable")
}

func TestListingNotifier_GuardFailureFailsOpen(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyersFixture(), nil)
	d := &recordingDeliverer{}

	n := service.NewListingNotifier(store, d, newTestLogger(), service.WithDedupeGuard(failingGuard{}))
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	require.False(t, res.Duplicate)
	assert.Equal(t, 2, res.Delivered)
}

func TestListingNotifier_StoreErrorDoesNotMarkListingSeen(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(nil, errors.New("db down")).Once()
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(buyersFixture(), nil).Once()
	d := &recordingDeliverer{}

	n := service.NewListingNotifier(store, d, newTestLogger(), service.WithDedupeGuard(dedupe.NewMemoryGuard(time.Hour)))
	first := n.NotifyForNewListing(context.Background(), downtownListing())
	redelivered := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, service.FanoutResult{}, first)
	assert.False(t, redelivered.Duplicate)
	assert.Equal(t, 2, redelivered.Delivered)
	store.AssertExpectations(t)
}

// ctxDeliverer waits for delay unless ctx ends first, and fails on
// a deadline the way a provider client would.
type ctxDeliverer struct {
	delay   time.Duration
	slowFor map[string]time.Duration
}

func (d ctxDeliverer) SendListingMatchNotification(ctx context.Context, buyer models.User, _ models.Listing, _ models.SavedSearch) error {
	delay := d.delay
	if v, ok := d.slowFor[buyer.ID]; ok {
		delay = v
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func manyBuyers(n int) []*models.User {
	buyers := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		buyers = append(buyers, &models.User{
			ID: fmt.Sprintf("buyer-%02d", i), Role: models.RoleUser,
			SavedSearches: []models.SavedSearch{{Name: "any"}},
		})
	}
	return buyers
}

func TestListingNotifier_SlowDeliveriesDoNotShareDeadline(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(manyBuyers(20), nil)

	// 20 deliveries of 40ms at concurrency 2 take ~400ms in total, well past
	// the 200ms each one is allowed.
	n := service.NewListingNotifier(store, ctxDeliverer{delay: 40 * time.Millisecond}, newTestLogger(),
		service.WithMaxConcurrency(2),
		service.WithDeliveryTimeout(200*time.Millisecond),
	)
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, service.FanoutResult{Matched: 20, Delivered: 20}, res)
}

func TestListingNotifier_DeliveryTimeoutFailsOnlyThatDelivery(t *testing.T) {
	store := new(mocks.MockUserStore)
	store.On("FindUsersWithSavedSearches", mock.Anything).Return(manyBuyers(4), nil)
	d := ctxDeliverer{
		delay:   time.Millisecond,
		slowFor: map[string]time.Duration{"buyer-01": time.Minute},
	}

	n := service.NewListingNotifier(store, d, newTestLogger(), service.WithDeliveryTimeout(50*time.Millisecond))
	res := n.NotifyForNewListing(context.Background(), downtownListing())

	assert.Equal(t, service.FanoutResult{Matched: 4, Delivered: 3, Failed: 1}, res)
}
