package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imishinist/go-callbag"
)

var (
	sessionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "go_callbag_sessions",
		Help: "The number of live sessions per operator",
	}, []string{"name", "type"})

	processedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "go_callbag_processed_total",
		Help: "The number of upstream values handled per operator",
	}, []string{"name", "type"})
)

func register(name, typ string) {
	sessionsGauge.WithLabelValues(name, typ).Add(0)
	processedCounter.WithLabelValues(name, typ).Add(0)
}

// operate runs callbag.Operate with per-operator session and throughput metrics.
func operate[T, R any](name, typ string, src callbag.Source[T], newHooks func() callbag.Hooks[T, R]) callbag.Source[R] {
	sessions := sessionsGauge.WithLabelValues(name, typ)
	processed := processedCounter.WithLabelValues(name, typ)

	return callbag.Operate(src, func() callbag.Hooks[T, R] {
		hooks := newHooks()
		sessions.Inc()

		onData := hooks.OnData
		hooks.OnData = func(l *callbag.Link[T, R], v T) {
			processed.Inc()
			onData(l, v)
		}
		onTeardown := hooks.OnTeardown
		hooks.OnTeardown = func() {
			sessions.Dec()
			if onTeardown != nil {
				onTeardown()
			}
		}
		return hooks
	})
}
