package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"leavenow/internal/capture"
	"leavenow/internal/config"
	"leavenow/internal/ics"
	"leavenow/internal/location"
	appLog "leavenow/internal/log"
	"leavenow/internal/model"
	"leavenow/internal/plan"
	"leavenow/internal/refresh"
	"leavenow/internal/remind"
	"leavenow/internal/route"
	"leavenow/internal/telemetry"
	"leavenow/internal/web"
)

type flagConfig struct {
	configPath string
	dotenvPath string
	listen     string
	once       bool
	capture    bool
	debug      bool
}

func main() {
	appLog.Info("leavenow starting", "version", "0.1.0-dev")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	secrets, err := config.LoadSecrets(flags.dotenvPath)
	if err != nil {
		appLog.Error("failed to load secrets", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	baseline, err := cron.ParseStandard(conf.BaselineCron)
	if err != nil {
		appLog.Error("invalid baseline cron", err, "cron", conf.BaselineCron)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"calendar", conf.CalendarName,
		"ics_count", len(conf.ICS),
		"pessimistic", conf.Pessimistic,
		"baseline_cron", conf.BaselineCron,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	var tel telemetry.Telemetry = telemetry.Nop()
	if flags.debug {
		tel = telemetry.Logged()
	}

	// Wire the planning core.
	fetcher := ics.NewFetcher(filepath.Join(conf.StateDir, "ics-cache"))
	calSource := ics.NewCalendarSource(fetcher, calendarSources(conf), loc)
	places := config.NewPlacesStore(conf.KnownPlacesPath)
	positions := location.NewProvider(
		location.NewHTTPSource(conf.PositionURL, secrets.PositionToken),
		location.NewFileCache(filepath.Join(conf.StateDir, "position.json")),
	)
	directions := route.NewService(secrets.MapsAPIKey, tel)
	planner := plan.NewPlanner(calSource, places, positions, directions, conf.Pessimistic, tel)
	reminders := remind.NewFileStore(filepath.Join(conf.StateDir, "reminders.json"))

	refreshCh := make(chan struct{}, 1)
	requestRefresh := func() {
		select {
		case refreshCh <- struct{}{}:
		default:
		}
	}

	previewPath := filepath.Join(conf.StateDir, "preview.png")
	server := web.NewServer(conf, requestRefresh, func() ([]model.Reminder, error) {
		return reminders.ListPending(ctx)
	}, previewPath)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := http.ListenAndServe(conf.Listen, server.Handler()); err != nil {
			appLog.Error("HTTP server stopped", err)
			cancel()
		}
	}()

	runCycle := func(now time.Time) time.Time {
		info, err := planner.Plan(ctx, now)
		if err != nil {
			// Position unavailable (or shutdown). The cycle aborted
			// before any paid call; try again at the floor.
			appLog.Error("planning cycle aborted", err)
			return now.Add(refresh.Floor)
		}

		server.SetRouteInfo(info)
		remind.Reconcile(ctx, info, now, reminders)

		if flags.capture {
			go func() {
				err := capture.WidgetPNG(ctx, capture.Options{
					URL:        "http://" + conf.Listen + "/widget",
					OutputPath: previewPath,
				})
				if err != nil {
					appLog.Error("widget capture failed", err)
				}
			}()
		}

		next := refresh.NextRefresh(info, now)
		appLog.Info("cycle complete",
			"destination", info.DestinationName,
			"route", info.RouteName,
			"travel_time_s", info.RouteTimeSeconds,
			"next_refresh", next.Format(time.RFC3339),
		)
		return next
	}

	next := runCycle(time.Now().In(loc))
	if flags.once {
		appLog.Info("leavenow exiting (once)")
		return
	}

	for {
		// The baseline cron bounds how long we may coast without
		// replanning, whatever the refresh policy says.
		now := time.Now().In(loc)
		wake := next
		if b := baseline.Next(now); b.Before(wake) {
			wake = b
		}

		timer := time.NewTimer(time.Until(wake))
		select {
		case <-ctx.Done():
			timer.Stop()
			appLog.Info("leavenow exiting")
			return
		case <-refreshCh:
			timer.Stop()
			appLog.Info("out-of-band refresh requested")
		case <-timer.C:
		}

		next = runCycle(time.Now().In(loc))
	}
}

// calendarSources maps configured ICS subscriptions to fetch sources,
// narrowed to the primary calendar when one is named.
func calendarSources(conf *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if conf.CalendarName != "" && c.Name != conf.CalendarName {
			continue
		}
		sources = append(sources, ics.Source{ID: c.ID, URL: c.URL})
	}
	return sources
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/leavenow/config.yaml", "Path to config file")
	flag.StringVar(&cfg.dotenvPath, "dotenv", "", "Optional dotenv file seeding secret env vars")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one planning cycle and exit")
	flag.BoolVar(&cfg.capture, "capture", false, "Capture the widget to a PNG after each cycle")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging and telemetry")

	flag.Parse()

	return cfg
}
