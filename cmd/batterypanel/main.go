package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/batterypanel/internal/applet"
	"codeberg.org/mutker/batterypanel/internal/brightness"
	"codeberg.org/mutker/batterypanel/internal/config"
	"codeberg.org/mutker/batterypanel/internal/errors"
	"codeberg.org/mutker/batterypanel/internal/icon"
	"codeberg.org/mutker/batterypanel/internal/logger"
	"codeberg.org/mutker/batterypanel/internal/pid"
	"codeberg.org/mutker/batterypanel/internal/popup"
	"codeberg.org/mutker/batterypanel/internal/upower"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if cfg.RequireBattery && !upower.ScanBattery(cfg.PowerSupplyDir) {
		logger.Info().
			Str("code", string(errors.ErrNoBattery)).
			Str("dir", cfg.PowerSupplyDir).
			Msg("No battery found, exiting")
		return
	}

	pidFile := pid.New("", pid.DefaultName)
	if err := pidFile.Write(); err != nil {
		if errors.HasCode(err, errors.ErrAlreadyRunning) {
			logger.Info().Msg("Another instance is already running")
			return
		}
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	if err := run(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	cancel()
	cleanup(pidFile)
}

func run(ctx context.Context, cfg *config.Config) error {
	errFactory := errors.New()

	client, err := upower.Connect(logger.Default("upower"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Debug().Err(err).Msg("failed to close bus connection")
		}
	}()

	helper := brightness.NewProcessHelper(cfg.HelperPath, cfg.Pkexec, nil)
	ctl := brightness.Setup(ctx, helper, logger.Default("brightness"), brightness.WithDelay(cfg.Debounce()))

	opts := []applet.Option{
		applet.WithLogger(logger.Default("applet")),
		applet.WithPolicy(icon.NewPolicy(cfg.DefaultIcon)),
		applet.WithBrightness(ctl),
	}

	if !cfg.Popup {
		a := applet.New(client, applet.NewLogTray(logger.Default("tray")), opts...)
		if err := a.Run(ctx); err != nil {
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}
		return nil
	}

	return runPopup(ctx, client, ctl, opts)
}

// runPopup runs the applet behind the terminal popup. Quitting the popup
// stops the applet.
func runPopup(ctx context.Context, client *upower.Client, ctl *brightness.Control, opts []applet.Option) error {
	errFactory := errors.New()

	sink := popup.NewSink()
	a := applet.New(client, sink, append(opts, applet.WithDetailView(sink))...)

	p := tea.NewProgram(popup.New(a, ctl), tea.WithContext(ctx))
	sink.Bind(p)

	appletCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- a.Run(appletCtx)
	}()

	_, err := p.Run()
	stop()
	if appletErr := <-done; appletErr != nil {
		return errFactory.Wrap(errors.ErrMainLoop, appletErr)
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errFactory.Wrap(errors.ErrPopupFailed, err)
	}

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(pidFile *pid.File) {
	if err := pidFile.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}
