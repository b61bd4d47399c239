package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/myta-ai/myta/internal/agent/core"
	"github.com/myta-ai/myta/internal/store"
)

// Scheduler runs periodic maintenance: sweeping expired cache entries and
// refreshing stale channel summaries. A Redis SetNX lock keeps a single
// instance doing the work when several replicas run.
type Scheduler struct {
	Store     *store.Store
	Cache     core.ResponseCache
	Metrics   core.ChannelMetricsProvider
	Rdb       *redis.Client
	SweepCron string
	StaleAge  time.Duration
	Stop      chan struct{}

	logger   *log.Logger
	lastTick *time.Time
}

func (s *Scheduler) Start() {
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	if s.StaleAge <= 0 {
		s.StaleAge = 24 * time.Hour
	}
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				if isDue(s.SweepCron, s.lastTick) {
					now := time.Now()
					s.lastTick = &now
					s.tick()
				}
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "sched:lock:maintenance", "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sched:lock:maintenance")
	}

	if s.Cache != nil {
		removed := s.Cache.ClearExpired(ctx)
		if removed > 0 {
			s.logger.Printf("swept %d expired cache entries", removed)
		}
	}

	if s.Store != nil && s.Metrics != nil {
		s.refreshStaleChannels(ctx)
	}
}

func (s *Scheduler) refreshStaleChannels(ctx context.Context) {
	ids, err := s.Store.StaleChannels(ctx, s.StaleAge)
	if err != nil {
		s.logger.Printf("listing stale channels: %v", err)
		return
	}
	for _, id := range ids {
		summary, err := s.Metrics.GetChannelSummary(ctx, id)
		if err != nil {
			// Quota errors stop the whole pass; single-channel failures
			// just skip to the next.
			if ctx.Err() != nil || isQuota(err) {
				s.logger.Printf("aborting refresh pass: %v", err)
				return
			}
			s.logger.Printf("refreshing channel %s: %v", id, err)
			continue
		}
		if err := s.Store.UpsertChannelSummary(ctx, summary); err != nil {
			s.logger.Printf("saving channel %s: %v", id, err)
		}
	}
}

func isQuota(err error) bool {
	return errors.Is(err, core.ErrQuotaExceeded)
}

// isDue determines if a cronSpec should fire now given the last run time.
// Supports "@daily", "@hourly", and standard cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "", "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
