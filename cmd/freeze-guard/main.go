// Command freeze-guard watches the weather at the device's location and
// reports pipe freeze risk over MQTT, driving a drain valve and recirculation
// pump when freezing is imminent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/freeze-guard/internal/config"
	"github.com/sweeney/freeze-guard/internal/freeze"
	"github.com/sweeney/freeze-guard/internal/gpio"
	"github.com/sweeney/freeze-guard/internal/logic"
	"github.com/sweeney/freeze-guard/internal/mqtt"
	"github.com/sweeney/freeze-guard/internal/status"
	"github.com/sweeney/freeze-guard/internal/store"
	"github.com/sweeney/freeze-guard/internal/weather"
	"github.com/sweeney/freeze-guard/internal/web"
)

const (
	statusRefresh   = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "device config file (overrides CONFIG_PATH)")
	envFile := flag.String("env", ".env", "dotenv file to load if present")
	printRisk := flag.Bool("print-risk", false, "Fetch weather for the stored location, print the assessment and exit")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if *configPath != "" {
		cfg.ConfigPath = *configPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, *printRisk, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, printRisk bool, logger *slog.Logger) error {
	ds := store.NewFileStore(cfg.ConfigPath)
	rec, err := ds.Load()
	if err != nil {
		return fmt.Errorf("load device config: %w", err)
	}

	wc := weather.NewClient(cfg.WeatherBaseURL,
		weather.WithUserAgent(cfg.WeatherUserAgent),
		weather.WithTimeout(cfg.WeatherTimeout),
		weather.WithLogger(logger))

	// Print risk mode
	if printRisk {
		return printRiskOnce(context.Background(), os.Stdout, wc, rec, cfg.ModelMode(), cfg.Thresholds())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Outputs are optional: a board without GPIO still reports risk.
	var actuator logic.Actuator
	if cfg.GPIOEnabled() {
		w, err := gpio.NewRealWriter(cfg.GPIOChip, cfg.PinValve, cfg.PinPump)
		if err != nil {
			logger.Warn("gpio unavailable, outputs disabled", "err", err)
		} else {
			defer w.Close()
			actuator = w
		}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Device:     cfg.Device,
		Broker:     brokerURL(cfg.Broker, rec),
		Mode:       cfg.ModelMode(),
		Thresholds: cfg.Thresholds(),
		HTTPAddr:   cfg.HTTPAddr,
		WeatherURL: cfg.WeatherBaseURL,
	})

	opts := mqtt.Options{
		Broker: brokerURL(cfg.Broker, rec),
		Device: cfg.Device,
		Logger: logger,
	}
	if rec.HasTLS() {
		tlsCfg, err := mqtt.LoadTLSConfig(rec.CACert, rec.Cert, rec.PrivateKey, cfg.ALPN)
		if err != nil {
			return fmt.Errorf("load tls material: %w", err)
		}
		opts.TLS = tlsCfg
	}

	// The handler needs the controller and the controller needs the client,
	// so the client is built first and connected last.
	var ctrl *logic.Controller
	opts.Handler = func(topic string, payload []byte) {
		dispatch(ctx, cfg.Device, ctrl, logger, topic, payload)
	}
	client, err := mqtt.NewRealClient(opts)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	ctrl = logic.NewController(cfg.ModelMode(), logic.Deps{
		Forecaster: wc,
		Store:      ds,
		Publisher:  client,
		Actuator:   actuator,
		Logger:     logger,
		OnChange:   tracker.Update,
	})
	if rec.Coordinates != nil {
		ctrl.Restore(logic.Coordinate{Lat: rec.Coordinates.Lat, Long: rec.Coordinates.Long})
		logger.Info("restored location", "lat", rec.Coordinates.Lat, "long", rec.Coordinates.Long)
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}

	logger.Info("started", "config", cfg.String(), "tls", opts.TLS != nil)

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTPAddr)
	}

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()
	g.Go(func() error {
		return runLoop(gctx, client, tracker, ticker.C, logger)
	})

	return g.Wait()
}

// runLoop keeps the tracker's broker status current until ctx is done.
func runLoop(ctx context.Context, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, tick <-chan time.Time, logger *slog.Logger) error {
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", "cause", context.Cause(ctx))
			return nil
		case <-tick:
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}
}

// dispatch parses one inbound message and hands it to the controller.
// Nothing here is fatal to the process.
func dispatch(ctx context.Context, device string, ctrl *logic.Controller, logger *slog.Logger, topic string, payload []byte) {
	ev, err := logic.ParseMessage(device, topic, payload)
	if err != nil {
		logger.Warn("malformed message", "topic", topic, "err", err)
		return
	}
	if err := ctrl.Handle(ctx, ev); err != nil {
		logger.Error("message handling failed", "topic", topic, "err", err)
	}
}

// brokerURL prefers the endpoint from the device config, as provisioned
// devices carry their own. A bare host gets the MQTT-over-TLS port.
func brokerURL(fallback string, rec store.Record) string {
	ep := strings.TrimSpace(rec.Endpoint)
	if ep == "" {
		return fallback
	}
	if strings.Contains(ep, "://") {
		return ep
	}
	return "ssl://" + ep + ":8883"
}

// printRiskOnce fetches the forecast for the stored location and prints the
// assessment.
func printRiskOnce(ctx context.Context, w io.Writer, f logic.Forecaster, rec store.Record, mode freeze.Mode, th freeze.Thresholds) error {
	if rec.Coordinates == nil {
		return errors.New("no stored location; publish one to {device}/Location first")
	}
	lat, long := rec.Coordinates.Lat, rec.Coordinates.Long

	series, err := f.Forecast(ctx, lat, long)
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}
	cur, ok := series.Current()
	if !ok {
		return errors.New("fetch weather: no forecast periods")
	}

	risk := freeze.Assess(cur.Temperature, cur.WindSpeed, mode)
	fmt.Fprintf(w, "Location: %g,%g\n", lat, long)
	fmt.Fprintf(w, "Temperature: %gF, Wind: %gmph\n", cur.Temperature, cur.WindSpeed)
	if risk.HasEstimate() {
		fmt.Fprintf(w, "Danger: %s (%.1f minutes to freeze, %s model)\n", risk.Level, risk.Minutes, mode)
	} else {
		fmt.Fprintf(w, "Danger: %s\n", risk.Level)
	}
	fmt.Fprintf(w, "Advisory: %s\n", th.Classify(cur.Temperature))
	return nil
}
