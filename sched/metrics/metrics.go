// Package metrics exports scheduler activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/XiaomingSong1670/srsran-cr/sched"
)

const (
	namespace = "srsran_cr"
	subsystem = "scheduler"
)

// Collector implements sched.Observer and keeps its metrics on a caller-owned registry.
type Collector struct {
	ttis          prometheus.Counter
	grants        *prometheus.CounterVec
	grantedBytes  *prometheus.CounterVec
	grantedRBGs   *prometheus.CounterVec
	excluded      prometheus.Counter
	queueDepth    *prometheus.GaugeVec
	reservedRatio *prometheus.GaugeVec
}

var _ sched.Observer = (*Collector)(nil)

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		ttis: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ttis_total",
			Help:      "Number of TTIs opened by the scheduler.",
		}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "grants_total",
			Help:      "Accepted allocations per carrier, direction and transmission type.",
		}, []string{"carrier", "direction", "retx"}),
		grantedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "granted_bytes_total",
			Help:      "Bytes granted per carrier and direction.",
		}, []string{"carrier", "direction"}),
		grantedRBGs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "granted_rbgs_total",
			Help:      "Resource block groups granted per carrier and direction.",
		}, []string{"carrier", "direction"}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "excluded_ues_total",
			Help:      "UEs left out of a TTI because the history store was full.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queued_ues",
			Help:      "UEs queued when the last TTI opened.",
		}, []string{"direction"}),
		reservedRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reserved_carrier_occupancy_ratio",
			Help:      "Share of the reserved carrier's RBGs reported occupied in the last TTI.",
		}, []string{"carrier"}),
	}
	for _, col := range []prometheus.Collector{
		c.ttis, c.grants, c.grantedBytes, c.grantedRBGs, c.excluded, c.queueDepth, c.reservedRatio,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering scheduler metrics: %w", err)
		}
	}
	return c, nil
}

func carrierLabel(carrier uint32) string {
	return strconv.FormatUint(uint64(carrier), 10)
}

// TTIOpened implements sched.Observer.
func (c *Collector) TTIOpened(_ sched.TTI, dlQueued, ulQueued int) {
	c.ttis.Inc()
	c.queueDepth.WithLabelValues(sched.Downlink.String()).Set(float64(dlQueued))
	c.queueDepth.WithLabelValues(sched.Uplink.String()).Set(float64(ulQueued))
}

// Granted implements sched.Observer.
func (c *Collector) Granted(_ sched.TTI, carrier uint32, dir sched.Direction, g sched.Grant) {
	cc := carrierLabel(carrier)
	c.grants.WithLabelValues(cc, dir.String(), strconv.FormatBool(g.Retx)).Inc()
	c.grantedBytes.WithLabelValues(cc, dir.String()).Add(float64(g.Bytes))
	c.grantedRBGs.WithLabelValues(cc, dir.String()).Add(float64(g.RBGs))
}

// Excluded implements sched.Observer.
func (c *Collector) Excluded(sched.TTI, uint16, error) {
	c.excluded.Inc()
}

// Coordinated implements sched.Observer.
func (c *Collector) Coordinated(_ sched.TTI, carrier uint32, mask sched.RBGMask) {
	c.reservedRatio.WithLabelValues(carrierLabel(carrier)).Set(mask.Fraction())
}
