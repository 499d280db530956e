package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcpln/listingnet/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveDelivery("listing_match", "resend", metrics.StatusDelivered)
	m.ObserveDelivery("listing_match", "resend", metrics.StatusDelivered)
	m.ObserveFanout(3, 1)
	m.SetActiveTransport("primary", "primary", "direct", "inert")

	n, err := testutil.GatherAndCount(reg, "listingnet_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "listingnet_fanout_matches_total")
	assert.Contains(t, names, "listingnet_active_transport")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveDelivery("k", "t", metrics.StatusFailed)
		m.ObserveFanout(1, 1)
		m.SetActiveTransport("inert")
	})
}
