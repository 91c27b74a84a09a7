package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Every returns a producer that sends next(now) as a buffered update on a
// fixed interval, starting immediately, until ctx is done.
func Every[T any](name string, interval time.Duration, next func(now time.Time) T) Producer[T] {
	return func(ctx context.Context, tx Sender[T]) error {
		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		defer func() {
			if err := s.Shutdown(); err != nil {
				slog.Debug("Scheduler shutdown", "subscription", name, "error", err)
			}
		}()

		_, err = s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				if err := tx.Buffered(ctx, next(time.Now())); err != nil {
					slog.Debug("Dropping scheduled update", "subscription", name, "error", err)
				}
			}),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}

		s.Start()
		<-ctx.Done()
		return nil
	}
}
