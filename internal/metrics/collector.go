package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// Counts is a snapshot of record totals.
type Counts struct {
	Users   int `json:"users"`
	Beans   int `json:"beans"`
	Entries int `json:"entries"`
}

// StatsSource returns the current record totals.
type StatsSource func(ctx context.Context) (Counts, error)

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled. The returned channel
// is closed when the goroutine exits.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) <-chan struct{} {
	// Do an initial collection immediately
	collect(ctx, src)

	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(ctx, src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
	return done
}

func collect(ctx context.Context, src StatsSource) {
	if src == nil {
		return
	}
	c, err := src(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to collect record counts")
		return
	}
	UsersTotal.Set(float64(c.Users))
	BeansTotal.Set(float64(c.Beans))
	ShotsTotal.Set(float64(c.Entries))
}

// Snapshot reads the record totals last published by the collector.
func Snapshot() Counts {
	return Counts{
		Users:   int(gaugeValue(UsersTotal)),
		Beans:   int(gaugeValue(BeansTotal)),
		Entries: int(gaugeValue(ShotsTotal)),
	}
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
