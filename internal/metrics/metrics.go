// Package metrics exposes Prometheus collectors for tool calls and resource reads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels calls that returned a success envelope.
	OutcomeSuccess = "success"
	// OutcomeError labels calls that returned a failure envelope.
	OutcomeError = "error"
	// OutcomeInvalid labels calls rejected by argument validation.
	OutcomeInvalid = "invalid"
)

var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hogmind",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls handled, partitioned by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	toolCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hogmind",
			Name:      "tool_call_seconds",
			Help:      "Tool call latency in seconds, including upstream fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	resourceReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hogmind",
			Name:      "resource_reads_total",
			Help:      "Total number of resource reads, partitioned by uri and outcome.",
		},
		[]string{"uri", "outcome"},
	)
)

// Register attaches hogmind collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		toolCallsTotal,
		toolCallSeconds,
		resourceReadsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveToolCall records a tool call duration and outcome label.
func ObserveToolCall(tool, outcome string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(tool, normalizeOutcome(outcome)).Inc()
	if duration < 0 {
		duration = 0
	}
	toolCallSeconds.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveResourceRead records a resource read outcome.
func ObserveResourceRead(uri string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	resourceReadsTotal.WithLabelValues(uri, outcome).Inc()
}

func normalizeOutcome(outcome string) string {
	switch outcome {
	case OutcomeError, OutcomeInvalid:
		return outcome
	default:
		return OutcomeSuccess
	}
}
