package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"
)

const groupingLabel = "execution"

// Pusher publishes the outcome of one run to a Prometheus Pushgateway
type Pusher struct {
	URL string
	Job string

	registry *prometheus.Registry
	duration prometheus.Gauge
	exitCode prometheus.Gauge
	success  prometheus.Gauge
}

// NewPusher returns a Pusher for the gateway at url, pushing under job
func NewPusher(url, job string) (*Pusher, error) {
	if url == "" {
		return nil, fmt.Errorf("missing pushgateway url")
	}
	if job == "" {
		return nil, fmt.Errorf("missing pushgateway job")
	}
	p := &Pusher{
		URL:      url,
		Job:      job,
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bactmap_run_duration_seconds",
			Help: "Wall time of the last nextflow run in seconds",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bactmap_run_exit_code",
			Help: "Exit code of the last nextflow run, -1 if it never started",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bactmap_run_success",
			Help: "1 if the last nextflow run exited zero",
		}),
	}
	p.registry.MustRegister(p.duration, p.exitCode, p.success)
	return p, nil
}

// Push sets the run gauges and pushes them grouped by execution name
func (p *Pusher) Push(ctx context.Context, execution string, exitCode int, duration time.Duration) error {
	p.duration.Set(duration.Seconds())
	p.exitCode.Set(float64(exitCode))
	if exitCode == 0 {
		p.success.Set(1)
	} else {
		p.success.Set(0)
	}

	err := push.New(p.URL, p.Job).
		Gatherer(p.registry).
		Grouping(groupingLabel, execution).
		PushContext(ctx)
	if err != nil {
		logrus.Errorf("failed to push run metrics to %s: %v", p.URL, err)
		return fmt.Errorf("failed to push run metrics: %w", err)
	}
	logrus.Infof("pushed run metrics for %s", execution)
	return nil
}
