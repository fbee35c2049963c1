package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics tracks the live connection pool and broadcast traffic.
type RealtimeMetrics struct {
	activeConnections prometheus.Gauge
	broadcasts        *prometheus.CounterVec
	droppedDeliveries prometheus.Counter
}

// NewRealtimeMetrics registers the realtime metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_active_connections",
		Help: "Number of live websocket connections.",
	})
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_broadcasts_total",
		Help: "Cart events fanned out to sibling connections.",
	}, []string{"event"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_dropped_deliveries_total",
		Help: "Best-effort deliveries dropped on full send buffers.",
	})
	reg.MustRegister(active, broadcasts, dropped)
	return &RealtimeMetrics{
		activeConnections: active,
		broadcasts:        broadcasts,
		droppedDeliveries: dropped,
	}
}

func (m *RealtimeMetrics) ConnOpened() {
	if m == nil || m.activeConnections == nil {
		return
	}
	m.activeConnections.Inc()
}

func (m *RealtimeMetrics) ConnClosed() {
	if m == nil || m.activeConnections == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *RealtimeMetrics) IncBroadcast(event string) {
	if m == nil || m.broadcasts == nil {
		return
	}
	m.broadcasts.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *RealtimeMetrics) IncDropped() {
	if m == nil || m.droppedDeliveries == nil {
		return
	}
	m.droppedDeliveries.Inc()
}

// LedgerMetrics counts sales ledger writes and the per-item failures the
// payment confirmation fold tolerates.
type LedgerMetrics struct {
	recordsWritten prometheus.Counter
	itemFailures   *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	written := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sales_records_written_total",
		Help: "Sales records appended or upserted by payment confirmation.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_item_failures_total",
		Help: "Per-item ledger steps skipped during payment confirmation.",
	}, []string{"reason"})
	reg.MustRegister(written, failures)
	return &LedgerMetrics{
		recordsWritten: written,
		itemFailures:   failures,
	}
}

func (m *LedgerMetrics) IncRecordWritten() {
	if m == nil || m.recordsWritten == nil {
		return
	}
	m.recordsWritten.Inc()
}

func (m *LedgerMetrics) IncItemFailure(reason string) {
	if m == nil || m.itemFailures == nil {
		return
	}
	m.itemFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
