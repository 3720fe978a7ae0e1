// Package metrics exposes the ledger totals and event counts to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NinetyDays/internal/model"
)

const namespace = "ninetydays"

// Collector keeps gauges in step with the ledger. Amounts are exported in
// value units and are approximate; the ledger itself stays exact.
type Collector struct {
	registry *prometheus.Registry

	totalFunds  prometheus.Gauge
	totalBonus  prometheus.Gauge
	feesAccrued prometheus.Gauge
	custody     prometheus.Gauge
	active      prometheus.Gauge
	entriesOpen prometheus.Gauge
	events      *prometheus.CounterVec
	audits      *prometheus.CounterVec
}

func NewCollector() *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	c := &Collector{
		registry:    prometheus.NewRegistry(),
		totalFunds:  gauge("total_funds", "Value held for participants, bonus pool and fees."),
		totalBonus:  gauge("bonus_pool", "Undistributed early-exit penalties."),
		feesAccrued: gauge("fees_accrued", "Service fees not yet withdrawn."),
		custody:     gauge("custody_balance", "Value actually held by the ledger."),
		active:      gauge("active_participants", "Participants currently in the challenge."),
		entriesOpen: gauge("entries_open", "1 when new entries are accepted."),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Ledger events emitted, by kind.",
		}, []string{"kind"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Bookkeeping audits run, by result.",
		}, []string{"result"}),
	}
	c.registry.MustRegister(c.totalFunds, c.totalBonus, c.feesAccrued, c.custody,
		c.active, c.entriesOpen, c.events, c.audits)
	return c
}

// Publish counts events and refreshes the gauges.
func (c *Collector) Publish(events []model.Event, summary model.Summary) error {
	for _, ev := range events {
		c.events.WithLabelValues(string(ev.Kind())).Inc()
	}
	c.Observe(summary)
	return nil
}

// Observe refreshes the gauges from a summary.
func (c *Collector) Observe(s model.Summary) {
	c.totalFunds.Set(toUnits(s.TotalFunds))
	c.totalBonus.Set(toUnits(s.TotalBonus))
	c.feesAccrued.Set(toUnits(s.FeesAccrued))
	c.custody.Set(toUnits(s.CustodyBalance))
	c.active.Set(float64(s.ActiveCount))
	if s.EntriesOpen {
		c.entriesOpen.Set(1)
	} else {
		c.entriesOpen.Set(0)
	}
}

// ObserveAudit counts one audit outcome.
func (c *Collector) ObserveAudit(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.audits.WithLabelValues(result).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var unitScale = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(model.UnitDecimals), nil))

func toUnits(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), unitScale).Float64()
	return f
}
