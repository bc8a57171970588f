package observability

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics observes the journal engine and the period calendar.
type LedgerMetrics struct {
	entries          *prometheus.CounterVec
	validationFailed *prometheus.CounterVec
	displayIDRetries prometheus.Counter
	periodsInserted  prometheus.Counter
}

// NewLedgerMetrics registers the ledger collectors on registerer.
func NewLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_journal_entries_total",
			Help: "Journal entries created by resulting status.",
		}, []string{"status"}),
		validationFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_journal_validation_failures_total",
			Help: "Journal writes rejected by reason.",
		}, []string{"reason"}),
		displayIDRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_display_id_retries_total",
			Help: "Display id allocations retried after a uniqueness conflict.",
		}),
		periodsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_periods_generated_total",
			Help: "Fiscal periods inserted by the calendar generator.",
		}),
	}
	registerer.MustRegister(m.entries, m.validationFailed, m.displayIDRetries, m.periodsInserted)
	return m
}

// EntryCreated counts a committed journal entry.
func (m *LedgerMetrics) EntryCreated(status string) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(status).Inc()
}

// ValidationFailed counts a rejected journal write.
func (m *LedgerMetrics) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.validationFailed.WithLabelValues(reason).Inc()
}

// DisplayIDRetry counts one retried display id allocation.
func (m *LedgerMetrics) DisplayIDRetry() {
	if m == nil {
		return
	}
	m.displayIDRetries.Inc()
}

// PeriodsGenerated adds the number of newly inserted periods.
func (m *LedgerMetrics) PeriodsGenerated(inserted int) {
	if m == nil || inserted <= 0 {
		return
	}
	m.periodsInserted.Add(float64(inserted))
}
