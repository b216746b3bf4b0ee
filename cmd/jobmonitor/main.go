package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/logger"
	"jobmonitor/internal/pipeline"
	"jobmonitor/internal/secrets"
)

var version = "dev"

const (
	exitOK        = 0
	exitFailed    = 1
	exitStoreSave = 2
)

type options struct {
	configPath string
	preview    bool
	open       bool
	email      bool
	telegram   bool
	daily      bool
	seenPath   string
	listen     string
	setSecret  string
}

func main() {
	os.Exit(run())
}

func run() int {
	var opt options
	flag.StringVar(&opt.configPath, "config", "", "path to config.yml (default $JOBMONITOR_CONFIG or config/config.yml)")
	flag.BoolVar(&opt.preview, "all", false, "preview every matching listing without updating the seen store")
	flag.BoolVar(&opt.open, "open", false, "open the markdown report when done")
	flag.BoolVar(&opt.email, "email", false, "write the email outbox and send over SMTP when configured")
	flag.BoolVar(&opt.telegram, "telegram", false, "push new listings to Telegram")
	flag.BoolVar(&opt.daily, "daily", false, "stay resident and run on schedule.cron")
	flag.StringVar(&opt.seenPath, "seen", "", "override store.path")
	flag.StringVar(&opt.listen, "listen", "", "with --daily, serve the status API on this address (e.g. 127.0.0.1:38471)")
	flag.StringVar(&opt.setSecret, "set-secret", "", "read a secret (smtp or telegram) from stdin into the OS keychain and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("jobmonitor", version)
		return exitOK
	}

	config.LoadEnv()
	logger.Init(logger.FromEnv())
	log := logger.Named("main")

	cfgPath, err := resolveConfigPath(opt.configPath)
	if err != nil {
		log.Error().Err(err).Msg("config bootstrap failed")
		return exitFailed
	}
	cfg, err := loadConfig(cfgPath, opt)
	if err != nil {
		log.Error().Err(err).Str("path", cfgPath).Msg("config")
		return exitFailed
	}

	if opt.setSecret != "" {
		if err := storeSecret(secrets.Kind(opt.setSecret), cfg); err != nil {
			log.Error().Err(err).Str("kind", opt.setSecret).Msg("set secret")
			return exitFailed
		}
		log.Info().Str("kind", opt.setSecret).Msg("secret stored in keychain")
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, opt)
	if err != nil {
		log.Error().Err(err).Msg("startup")
		return exitFailed
	}

	mode := pipeline.ModeNew
	if opt.preview {
		mode = pipeline.ModePreview
	}

	if opt.daily {
		if err := app.daemon(ctx, mode, opt.listen); err != nil {
			log.Error().Err(err).Msg("daily")
			return exitFailed
		}
		return exitOK
	}

	_, err = app.runOnce(ctx, mode)
	return exitCode(err)
}

// exitCode maps a run error onto the process status: partial source failures
// still exit 0, a total fetch failure or an unusable store exits 1, and a
// completed run whose store could not be saved exits 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errStoreUnavailable), errors.Is(err, domain.ErrAllSourcesFailed):
		return exitFailed
	case errors.Is(err, domain.ErrStoreIO):
		return exitStoreSave
	default:
		return exitFailed
	}
}

func resolveConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if p := config.EnvOr("JOBMONITOR_CONFIG", ""); p != "" {
		return p, nil
	}
	defaultPath := filepath.Join("config", "config.yml")
	if dataDir := config.EnvOr("JOBMONITOR_DATA_DIR", ""); dataDir != "" {
		return config.EnsureUserConfig(dataDir, defaultPath)
	}
	return defaultPath, nil
}

func loadConfig(path string, opt options) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if opt.seenPath != "" {
		cfg.Store.Path = opt.seenPath
	}
	if dataDir := config.EnvOr("JOBMONITOR_DATA_DIR", ""); dataDir != "" {
		cfg.Store.Path = underDir(dataDir, cfg.Store.Path)
		cfg.Output.Dir = underDir(dataDir, cfg.Output.Dir)
	}

	out, v := config.NormalizeAndValidate(cfg)
	log := logger.Named("config")
	for _, w := range v.Warnings {
		log.Warn().Msg(w)
	}
	if err := v.Err(); err != nil {
		return out, err
	}
	log.Info().Str("path", path).Int("companies", len(out.Companies)).Msg("config loaded")
	return out, nil
}

func underDir(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func storeSecret(kind secrets.Kind, cfg config.Config) error {
	fmt.Fprintf(os.Stderr, "%s secret: ", kind)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	return secrets.Set(kind, cfg, strings.TrimSpace(line))
}
