package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("/api/matches/{matchID}/result", http.MethodPost, 200, 15*time.Millisecond)
	m.MatchSettled("Team1Win", -16)
	m.MatchSettled("Draw", 0)
	m.Transition("Open", "Ongoing")
	m.EventHandled("hub", "match.resolved", nil)
	m.EventHandled("hub", "match.resolved", errors.New("offline"))
	m.QueueDepth(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchesSettled.WithLabelValues("Team1Win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Open", "Ongoing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsHandled.WithLabelValues("hub", "match.resolved", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.queueDepth))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", http.MethodGet, 200, time.Millisecond)
		m.MatchSettled("Draw", 0)
		m.Transition("Open", "Cancelled")
		m.BracketBuilt("Knockout")
		m.EventHandled("log", "bracket.built", nil)
		m.QueueDepth(0)
	})
}
