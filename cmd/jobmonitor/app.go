package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/browser"

	"jobmonitor/internal/config"
	"jobmonitor/internal/events"
	"jobmonitor/internal/httpapi"
	"jobmonitor/internal/logger"
	"jobmonitor/internal/notify"
	"jobmonitor/internal/pipeline"
	"jobmonitor/internal/poll"
	"jobmonitor/internal/report"
	"jobmonitor/internal/scheduler"
	"jobmonitor/internal/secrets"
)

var errStoreUnavailable = errors.New("seen store unavailable")

type app struct {
	cfg       config.Config
	orch      *pipeline.Orchestrator
	notifiers []notify.Notifier
	open      bool
}

func newApp(cfg config.Config, opt options) (*app, error) {
	orch, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, orch: orch, open: opt.open}

	if opt.email {
		a.notifiers = append(a.notifiers, notify.NewOutbox(cfg))
		if cfg.Notification.SMTP.Host != "" {
			pw, err := secrets.Get(secrets.SMTPPassword, cfg)
			if err != nil {
				return nil, fmt.Errorf("smtp: %w", err)
			}
			a.notifiers = append(a.notifiers, notify.NewSMTP(cfg, pw))
		}
	}
	if opt.telegram {
		token, err := secrets.Get(secrets.TelegramToken, cfg)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		bot, err := notify.NewBotSender(token)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.notifiers = append(a.notifiers, &notify.Telegram{
			Sender:    bot,
			ChatID:    cfg.Notification.Telegram.ChatID,
			SendEmpty: cfg.Notification.SendEmpty,
		})
	}
	return a, nil
}

// runOnce executes one pass and renders whatever it produced, even when the
// store could not be saved.
func (a *app) runOnce(ctx context.Context, mode pipeline.Mode) (pipeline.RunResult, error) {
	res, runErr := a.orch.Execute(ctx, mode)
	if runErr != nil && res.RunID == "" {
		return res, fmt.Errorf("%w: %w", errStoreUnavailable, runErr)
	}
	ctx = logger.WithRun(ctx, res.RunID)
	log := logger.C(ctx)
	now := time.Now()

	path, err := report.WriteFile(a.cfg.Output.Dir, a.cfg.Output.MarkdownFile, report.Markdown(res, now))
	if err != nil {
		log.Error().Err(err).Msg("write report")
	} else {
		log.Info().Str("path", path).Msg("report written")
	}
	report.Console(os.Stdout, res, a.cfg.Output.ConsoleLimit, now)

	if err := notify.All(ctx, a.notifiers, res, now); err != nil {
		log.Warn().Err(err).Msg("some notifications failed")
	}

	if a.open && path != "" {
		if err := browser.OpenFile(path); err != nil {
			log.Warn().Err(err).Msg("open report")
		}
	}
	return res, runErr
}

// daemon keeps the monitor resident, running on schedule.cron and, with
// listen set, serving the status API until ctx ends.
func (a *app) daemon(ctx context.Context, mode pipeline.Mode, listen string) error {
	hub := events.NewHub()
	poller := poll.New(a.runOnce, hub)

	if listen != "" {
		srv := httpapi.NewServer(listen, httpapi.Deps{
			Poller: poller,
			Hub:    hub,
			Config: func() config.Config { return a.cfg },
		})
		log := logger.Named("http")
		go func() {
			log.Info().Str("addr", listen).Msg("status api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status api stopped")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	return scheduler.Cron(ctx, a.cfg.Schedule.Cron, "jobmonitor", true, func(ctx context.Context) error {
		_, err := poller.RunOnce(ctx, mode)
		if errors.Is(err, poll.ErrBusy) {
			return nil
		}
		return err
	})
}
