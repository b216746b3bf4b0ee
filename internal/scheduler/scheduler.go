// Package scheduler runs a task on a cron schedule until its context ends.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobmonitor/internal/logger"
)

type Task func(ctx context.Context) error

// Parse validates a standard 5-field cron spec ("0 8 * * *").
func Parse(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", spec, err)
	}
	return s, nil
}

// Cron runs task on spec until ctx is done. With runNow the task also fires
// once immediately. A tick that arrives while the previous run is still
// going is skipped. Task errors are logged, never fatal.
func Cron(ctx context.Context, spec, name string, runNow bool, task Task) error {
	return cronIn(ctx, spec, name, runNow, time.Local, task)
}

func cronIn(ctx context.Context, spec, name string, runNow bool, loc *time.Location, task Task) error {
	sched, err := Parse(spec)
	if err != nil {
		return err
	}
	log := logger.Named("scheduler")
	clog := cron.PrintfLogger(log)

	c := cron.New(cron.WithLocation(loc))
	job := cron.FuncJob(func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error().Err(err).Str("task", name).Msg("scheduled run failed")
			return
		}
		log.Info().Str("task", name).Dur("took", time.Since(start)).Msg("scheduled run done")
	})
	// one chain for both the immediate and the scheduled runs so they never overlap
	wrapped := cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(job)
	c.Schedule(sched, wrapped)

	c.Start()
	log.Info().Str("task", name).Str("spec", spec).Time("next", sched.Next(time.Now().In(loc))).Msg("scheduled")

	// Stop only waits for jobs the cron started, so the immediate run is
	// tracked separately.
	var first sync.WaitGroup
	if runNow {
		first.Add(1)
		go func() {
			defer first.Done()
			wrapped.Run()
		}()
	}

	<-ctx.Done()
	<-c.Stop().Done()
	first.Wait()
	return nil
}
