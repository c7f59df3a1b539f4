package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerMetrics_Observe(t *testing.T) {
	m := Ledger()
	assert.Same(t, m, Ledger())

	before := testutil.ToFloat64(m.checkouts.WithLabelValues("completed"))
	m.ObserveCheckout("completed", 800, map[int32]int64{1: 95, 2: 0})
	assert.Equal(t, before+1, testutil.ToFloat64(m.checkouts.WithLabelValues("completed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.rewarded.WithLabelValues("1")), float64(95))

	m.ObserveJobRun("expire-virtual-currency", errors.New("db down"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire-virtual-currency", "failure")), float64(1))

	m.SetWalletDrift(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.walletDrift))

	m.ObserveSweep(120, 1, 20*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.expired), float64(120))
}

func TestLedgerMetrics_NilIsSafe(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.ObserveCheckout("completed", 1, nil)
		m.ObserveVoid()
		m.ObserveSweep(1, 0, time.Second)
		m.ObserveConflict("checkout")
		m.SetWalletDrift(0)
		m.ObserveJobRun("x", nil)
		m.ObserveCacheLookup(true)
	})
}
