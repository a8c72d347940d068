// Package metrics exposes Prometheus collectors for the daemon run loop.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"vawter.tech/stopper"
)

const (
	namespace = "svcctl"
	subsystem = "daemon"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Daemon records run loop activity. It satisfies svcctl.LoopObserver.
type Daemon struct {
	workUnits     *prometheus.CounterVec
	workDuration  prometheus.Histogram
	lastIteration prometheus.Gauge
	shutdowns     *prometheus.CounterVec
}

// NewDaemon creates collectors labelled with the service name
func NewDaemon(service string) *Daemon {
	labels := prometheus.Labels{"service": service}
	return &Daemon{
		workUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        "work_units_total",
				Help:        "Number of completed work units by result.",
				ConstLabels: labels,
			}, []string{"result"},
		),
		workDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        "work_unit_duration_seconds",
				Help:        "Duration of work units.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
		),
		lastIteration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        "last_iteration",
				Help:        "Iteration counter of the most recent work unit.",
				ConstLabels: labels,
			},
		),
		shutdowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        "shutdowns_total",
				Help:        "Number of shutdowns by triggering signal.",
				ConstLabels: labels,
			}, []string{"signal"},
		),
	}
}

// Register registers all collectors with r. Collectors that are already
// registered are kept.
func (d *Daemon) Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{d.workUnits, d.workDuration, d.lastIteration, d.shutdowns}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// WorkCompleted records one work unit
func (d *Daemon) WorkCompleted(iteration uint64, elapsed time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	d.workUnits.WithLabelValues(result).Inc()
	d.workDuration.Observe(elapsed.Seconds())
	d.lastIteration.Set(float64(iteration))
}

// ShutdownStarted records the start of shutdown
func (d *Daemon) ShutdownStarted(sig os.Signal) {
	name := "none"
	if sig != nil {
		name = sig.String()
	}
	d.shutdowns.WithLabelValues(name).Inc()
}

// Handler returns an http.Handler serving metrics from g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves g at path until sctx stops. The listener
// is opened before Serve returns so address errors are reported to the caller.
func Serve(sctx *stopper.Context, addr, path string, g prometheus.Gatherer) (net.Addr, error) {
	if path == "" {
		path = "/metrics"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, Handler(g))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sctx.Go(func(sctx *stopper.Context) error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	sctx.Go(func(sctx *stopper.Context) error {
		<-sctx.Stopping()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	return ln.Addr(), nil
}
