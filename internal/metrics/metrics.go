package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	checkouts       *prometheus.CounterVec
	redeemed        prometheus.Counter
	rewarded        *prometheus.CounterVec
	voids           prometheus.Counter
	expired         prometheus.Counter
	expiryFailures  prometheus.Counter
	sweepDuration   prometheus.Histogram
	conflicts       *prometheus.CounterVec
	walletDrift     prometheus.Gauge
	jobRuns         *prometheus.CounterVec
	balanceCacheHit *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide collectors, registering them on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_checkouts_total",
				Help: "Checkouts processed by outcome.",
			}, []string{"outcome"}),
			redeemed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_vc_redeemed_cents_total",
				Help: "Virtual currency redeemed at checkout, in cents.",
			}),
			rewarded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_vc_rewarded_cents_total",
				Help: "Virtual currency credited to uplines, in cents, by referral level.",
			}, []string{"level"}),
			voids: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_transactions_voided_total",
				Help: "Transactions voided.",
			}),
			expired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_vc_expired_cents_total",
				Help: "Virtual currency removed by the expiry sweeper, in cents.",
			}),
			expiryFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_expiry_failures_total",
				Help: "Earn entries the expiry sweeper failed to process.",
			}),
			sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "loyalty_expiry_sweep_duration_seconds",
				Help:    "Duration of expiry sweeps.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			}),
			conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_concurrent_modifications_total",
				Help: "Operations rejected because a wallet lock could not be taken.",
			}, []string{"operation"}),
			walletDrift: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "loyalty_wallet_drift",
				Help: "Wallets whose projected balance disagreed with the ledger at the last reconciliation.",
			}),
			jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_job_runs_total",
				Help: "Background job runs by job and status.",
			}, []string{"job", "status"}),
			balanceCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_balance_cache_lookups_total",
				Help: "Balance cache lookups by result.",
			}, []string{"result"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.checkouts,
			ledgerRegistry.redeemed,
			ledgerRegistry.rewarded,
			ledgerRegistry.voids,
			ledgerRegistry.expired,
			ledgerRegistry.expiryFailures,
			ledgerRegistry.sweepDuration,
			ledgerRegistry.conflicts,
			ledgerRegistry.walletDrift,
			ledgerRegistry.jobRuns,
			ledgerRegistry.balanceCacheHit,
		)
	})
	return ledgerRegistry
}

func (m *LedgerMetrics) ObserveCheckout(outcome string, redeemed int64, rewards map[int32]int64) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	if redeemed > 0 {
		m.redeemed.Add(float64(redeemed))
	}
	for level, amount := range rewards {
		if amount > 0 {
			m.rewarded.WithLabelValues(strconv.Itoa(int(level))).Add(float64(amount))
		}
	}
}

func (m *LedgerMetrics) ObserveVoid() {
	if m == nil {
		return
	}
	m.voids.Inc()
}

func (m *LedgerMetrics) ObserveSweep(expired int64, failures int, took time.Duration) {
	if m == nil {
		return
	}
	m.expired.Add(float64(expired))
	m.expiryFailures.Add(float64(failures))
	m.sweepDuration.Observe(took.Seconds())
}

func (m *LedgerMetrics) ObserveConflict(operation string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation).Inc()
}

func (m *LedgerMetrics) SetWalletDrift(n int) {
	if m == nil {
		return
	}
	m.walletDrift.Set(float64(n))
}

func (m *LedgerMetrics) ObserveJobRun(job string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}

func (m *LedgerMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.balanceCacheHit.WithLabelValues(result).Inc()
}
