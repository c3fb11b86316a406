// Package metrics implements simple, dependency-free metrics with
// Prometheus text exposition. Keep implementation minimal: atomic values,
// mutex-protected registry.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing number.
type Counter struct {
	name string
	help string
	val  int64
}

func (c *Counter) Inc()            { atomic.AddInt64(&c.val, 1) }
func (c *Counter) Add(delta int64) { atomic.AddInt64(&c.val, delta) }
func (c *Counter) Get() int64      { return atomic.LoadInt64(&c.val) }

// Gauge is an arbitrary number that can go up and down. Stored as float64
// bits so updates stay atomic without a mutex.
type Gauge struct {
	name string
	help string
	f64  uint64
}

func (g *Gauge) Set(v float64) { atomic.StoreUint64(&g.f64, math.Float64bits(v)) }
func (g *Gauge) Add(delta float64) {
	for {
		old := atomic.LoadUint64(&g.f64)
		nv := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(&g.f64, old, math.Float64bits(nv)) {
			return
		}
	}
}
func (g *Gauge) Get() float64 { return math.Float64frombits(atomic.LoadUint64(&g.f64)) }

// Histogram has fixed cumulative buckets plus sum/count. The last bucket
// acts as +Inf, observations above all bounds land there.
type Histogram struct {
	name   string
	help   string
	bounds []float64 // sorted ascending
	counts []uint64
	sum    uint64 // float64 bits
	count  uint64
}

func (h *Histogram) Observe(v float64) {
	placed := false
	for i, ub := range h.bounds {
		if v <= ub {
			atomic.AddUint64(&h.counts[i], 1)
			placed = true
			break
		}
	}
	if !placed {
		atomic.AddUint64(&h.counts[len(h.counts)-1], 1)
	}
	atomic.AddUint64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		nv := math.Float64frombits(old) + v
		if atomic.CompareAndSwapUint64(&h.sum, old, math.Float64bits(nv)) {
			return
		}
	}
}

// Registry owns all metrics and renders them.
type Registry struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

func (r *Registry) Histogram(name, help string, bounds []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	h := &Histogram{name: name, help: help, bounds: sorted, counts: make([]uint64, len(sorted)+1)}
	r.histograms[name] = h
	return h
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.mu.Lock()
		defer r.mu.Unlock()

		for _, name := range sortedKeys(r.counters) {
			c := r.counters[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, c.help, name, name, c.Get())
		}
		for _, name := range sortedKeys(r.gauges) {
			g := r.gauges[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n", name, g.help, name, name, g.Get())
		}
		for _, name := range sortedKeys(r.histograms) {
			h := r.histograms[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", name, h.help, name)
			cum := uint64(0)
			for i, ub := range h.bounds {
				cum += atomic.LoadUint64(&h.counts[i])
				fmt.Fprintf(w, "%s_bucket{le=\"%g\"} %d\n", name, ub, cum)
			}
			cum += atomic.LoadUint64(&h.counts[len(h.counts)-1])
			fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", name, cum)
			fmt.Fprintf(w, "%s_sum %g\n", name, math.Float64frombits(atomic.LoadUint64(&h.sum)))
			fmt.Fprintf(w, "%s_count %d\n", name, atomic.LoadUint64(&h.count))
		}
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
