package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStater is satisfied by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// poolCollector reads pgxpool statistics at scrape time.
type poolCollector struct {
	pool PoolStater

	conns           *prometheus.Desc
	maxConns        *prometheus.Desc
	acquires        *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	canceledAcquire *prometheus.Desc
	acquireSeconds  *prometheus.Desc
}

// NewPoolCollector returns a collector exposing the connection pool that
// backs the registration ledger. Acquires that had to wait (empty_acquires)
// rise when registrations queue on the pool rather than on event locks.
func NewPoolCollector(pool PoolStater) prometheus.Collector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "db_pool", n) }
	return &poolCollector{
		pool:            pool,
		conns:           prometheus.NewDesc(name("connections"), "Pool connections by state", []string{"state"}, nil),
		maxConns:        prometheus.NewDesc(name("max_connections"), "Configured pool size", nil, nil),
		acquires:        prometheus.NewDesc(name("acquires_total"), "Successful connection acquires", nil, nil),
		emptyAcquires:   prometheus.NewDesc(name("empty_acquires_total"), "Acquires that waited for a free connection", nil, nil),
		canceledAcquire: prometheus.NewDesc(name("canceled_acquires_total"), "Acquires abandoned because their context ended", nil, nil),
		acquireSeconds:  prometheus.NewDesc(name("acquire_seconds_total"), "Time spent acquiring connections", nil, nil),
	}
}

// RegisterPool exposes pool on Registry.
func RegisterPool(pool PoolStater) error {
	return Registry.Register(NewPoolCollector(pool))
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.conns
	ch <- c.maxConns
	ch <- c.acquires
	ch <- c.emptyAcquires
	ch <- c.canceledAcquire
	ch <- c.acquireSeconds
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	if stat == nil {
		return
	}

	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue
	ch <- prometheus.MustNewConstMetric(c.conns, gauge, float64(stat.AcquiredConns()), "acquired")
	ch <- prometheus.MustNewConstMetric(c.conns, gauge, float64(stat.IdleConns()), "idle")
	ch <- prometheus.MustNewConstMetric(c.conns, gauge, float64(stat.ConstructingConns()), "constructing")
	ch <- prometheus.MustNewConstMetric(c.maxConns, gauge, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, counter, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, counter, float64(stat.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.canceledAcquire, counter, float64(stat.CanceledAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireSeconds, counter, stat.AcquireDuration().Seconds())
}
