package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bmadforge/runtime/internal/event"
)

// Registered once at package load, not per Server: prometheus panics on a
// duplicate collector registration, and a process only ever wants one set
// of these counters regardless of how many Server values it constructs.
var (
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmadrun_sessions_total",
			Help: "Total number of sessions by terminal status",
		},
		[]string{"status"},
	)
	costTotalUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bmadrun_cost_usd_total",
			Help: "Cumulative estimated provider cost across all sessions, in USD",
		},
	)
	toolDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmadrun_tool_dispatch_total",
			Help: "Total number of tool dispatches by tool name and outcome",
		},
		[]string{"tool_name", "status"},
	)
)

// subscribeMetrics wires the package-level counters to the global event bus
// so the session engine never has to know metrics exist. Returns an
// unsubscribe func a Server calls on Shutdown.
func subscribeMetrics() (unsubscribe func()) {
	unsubSessionCompleted := event.Subscribe(event.SessionCompleted, func(evt event.Event) {
		data, ok := evt.Data.(event.SessionCompletedData)
		if !ok {
			return
		}
		sessionsTotal.WithLabelValues("completed").Inc()
		costTotalUSD.Add(data.Cost)
	})
	unsubSessionFailed := event.Subscribe(event.SessionFailed, func(evt event.Event) {
		if _, ok := evt.Data.(event.SessionFailedData); ok {
			sessionsTotal.WithLabelValues("failed").Inc()
		}
	})
	unsubToolDispatched := event.Subscribe(event.ToolDispatched, func(evt event.Event) {
		data, ok := evt.Data.(event.ToolDispatchedData)
		if !ok {
			return
		}
		status := "error"
		if data.Success {
			status = "success"
		}
		toolDispatchTotal.WithLabelValues(data.ToolName, status).Inc()
	})

	return func() {
		unsubSessionCompleted()
		unsubSessionFailed()
		unsubToolDispatched()
	}
}
