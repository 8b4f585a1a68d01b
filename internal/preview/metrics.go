package preview

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	live     prometheus.Gauge
	acquires *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aplus_preview_live_handles",
			Help: "Number of preview handles currently holding document bytes.",
		}),
		acquires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aplus_preview_acquires_total",
			Help: "Preview acquisitions by outcome (ok, error, superseded).",
		}, []string{"result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.live, m.acquires} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
