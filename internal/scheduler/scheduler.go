package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/microblog/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Task is a named unit of periodic work.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Counter is satisfied by the repos' Count methods.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Pruner drops idle state, e.g. rate limiter buckets.
type Pruner interface {
	Prune(idle time.Duration) int
}

// Start runs every task once, then again on each tick of the cron spec until
// ctx is cancelled.
func Start(ctx context.Context, spec string, tasks ...Task) error {
	c := cron.New()
	for _, t := range tasks {
		if _, err := c.AddFunc(spec, func() { run(ctx, t) }); err != nil {
			return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
		}
	}

	for _, t := range tasks {
		run(ctx, t)
	}
	c.Start()
	slog.Info("scheduler: started", "schedule", spec, "tasks", len(tasks))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		slog.Info("scheduler: stopped")
	}()
	return nil
}

func run(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	if err := t.Fn(ctx); err != nil {
		slog.Error("scheduler: task failed", "task", t.Name, "error", err)
	}
}

// StatsTask refreshes the user, post and follow-edge gauges.
func StatsTask(users, posts, follows Counter) Task {
	return Task{
		Name: "stats",
		Fn: func(ctx context.Context) error {
			nu, err := users.Count(ctx)
			if err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			np, err := posts.Count(ctx)
			if err != nil {
				return fmt.Errorf("count posts: %w", err)
			}
			nf, err := follows.Count(ctx)
			if err != nil {
				return fmt.Errorf("count follows: %w", err)
			}
			metrics.SetStats(nu, np, nf)
			return nil
		},
	}
}

// PruneTask forgets rate limiter clients idle for longer than idle.
func PruneTask(p Pruner, idle time.Duration) Task {
	return Task{
		Name: "prune-limiter",
		Fn: func(context.Context) error {
			if n := p.Prune(idle); n > 0 {
				slog.Debug("scheduler: pruned limiter buckets", "count", n)
			}
			return nil
		},
	}
}
