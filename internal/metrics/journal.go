package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/saved-response/internal/domain"
)

var (
	journalDispatchDesc = prometheus.NewDesc(
		"savedresponse_journal_dispatch_total",
		"Dispatches recorded in the action journal by mode and status",
		[]string{"mode", "status"}, nil,
	)
	journalStepFailureDesc = prometheus.NewDesc(
		"savedresponse_journal_step_failures_total",
		"Degraded follow-up steps recorded in the action journal",
		[]string{"step"}, nil,
	)
	journalModeratorDesc = prometheus.NewDesc(
		"savedresponse_journal_moderator_dispatch_total",
		"Dispatches recorded in the action journal by moderator",
		[]string{"moderator"}, nil,
	)
)

// JournalCollector exposes the action journal as counters. The CLI exits
// after each dispatch, so the journal is the only place totals survive;
// it is re-read on every scrape.
type JournalCollector struct {
	load func() ([]domain.ActionRecord, error)
}

func NewJournalCollector(load func() ([]domain.ActionRecord, error)) *JournalCollector {
	return &JournalCollector{load: load}
}

func (c *JournalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- journalDispatchDesc
	ch <- journalStepFailureDesc
	ch <- journalModeratorDesc
}

func (c *JournalCollector) Collect(ch chan<- prometheus.Metric) {
	records, err := c.load()
	if err != nil {
		slog.Error("Journal read failed", "err", err)
		ch <- prometheus.NewInvalidMetric(journalDispatchDesc, err)
		return
	}

	type modeStatus struct{ mode, status string }
	dispatches := make(map[modeStatus]int)
	steps := make(map[string]int)
	moderators := make(map[string]int)
	for _, r := range records {
		dispatches[modeStatus{r.Mode, r.Status}]++
		moderators[r.Moderator]++
		for _, s := range r.DegradedSteps {
			steps[s]++
		}
	}

	for k, n := range dispatches {
		ch <- prometheus.MustNewConstMetric(journalDispatchDesc, prometheus.CounterValue, float64(n), k.mode, k.status)
	}
	for step, n := range steps {
		ch <- prometheus.MustNewConstMetric(journalStepFailureDesc, prometheus.CounterValue, float64(n), step)
	}
	for mod, n := range moderators {
		ch <- prometheus.MustNewConstMetric(journalModeratorDesc, prometheus.CounterValue, float64(n), mod)
	}
}

// JournalHandler serves the journal counters alongside the process-wide
// registry. Each call gets its own registry.
func JournalHandler(load func() ([]domain.ActionRecord, error)) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewJournalCollector(load))
	return promhttp.HandlerFor(prometheus.Gatherers{prometheus.DefaultGatherer, reg}, promhttp.HandlerOpts{})
}
