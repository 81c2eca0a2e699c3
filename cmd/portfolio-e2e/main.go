// Journey runner for the portfolio site.
//
// Runs the browser journeys outside `go test`, once or on an interval for
// synthetic monitoring. Settings come from the same environment as the e2e
// suite (BASE_URL, BROWSER, TRACE_DIR, ...).
//
// Usage:
//
//	go run ./cmd/portfolio-e2e
//	go run ./cmd/portfolio-e2e -journey contact-form -driver cdp
//	go run ./cmd/portfolio-e2e -repeat 15m   # re-run every 15 minutes
//	go run ./cmd/portfolio-e2e -fixture      # against the in-process fixture site
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/cmd/portfolio-fixture/server"
	"github.com/portfolio-qa/portfolio-e2e/internal/config"
	"github.com/portfolio-qa/portfolio-e2e/internal/logging"
	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
	"github.com/portfolio-qa/portfolio-e2e/pkg/journey"
)

const (
	driverPlaywright = "playwright"
	driverCDP        = "cdp"
)

func main() {
	name := flag.String("journey", "", "Run a single journey ("+strings.Join(journey.Names(), ", ")+")")
	repeat := flag.Duration("repeat", 0, "Re-run every interval until interrupted (0 runs once)")
	fixture := flag.Bool("fixture", false, "Start the fixture site and run against it")
	driver := flag.String("driver", driverPlaywright, "Browser driver: playwright or cdp (Chromium only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *fixture {
		cfg.Fixture = true
	}
	log := logging.New(cfg.LogLevel)

	js, err := selectJourneys(*name)
	if err != nil {
		log.WithError(err).Fatal("bad -journey")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("interrupted, finishing current journey")
		cancel()
	}()

	os.Exit(run(ctx, cfg, *driver, js, *repeat, log))
}

func selectJourneys(name string) ([]journey.Journey, error) {
	if name == "" {
		return journey.All(), nil
	}
	j, ok := journey.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown journey %q", name)
	}
	return []journey.Journey{j}, nil
}

func run(ctx context.Context, cfg config.Config, driver string, js []journey.Journey, repeat time.Duration, log *logrus.Logger) int {
	if cfg.Fixture {
		srv, err := server.NewServer(server.DefaultConfig(), server.Deps{Log: log})
		if err != nil {
			log.WithError(err).Error("failed to create fixture")
			return 1
		}
		if _, err := srv.Start(); err != nil {
			log.WithError(err).Error("failed to start fixture")
			return 1
		}
		defer srv.Shutdown(context.Background())
		cfg.BaseURL = srv.URL()
	}

	open, closeDriver, err := openDriver(cfg, driver, log)
	if err != nil {
		log.WithError(err).Error("failed to start browser driver")
		return 1
	}
	defer closeDriver()

	runner := journey.NewRunner(open, journey.Options{
		BaseURL:     cfg.BaseURL,
		WaitTimeout: cfg.WaitTimeout,
	}, log)

	log.WithFields(logrus.Fields{
		"base_url": cfg.BaseURL,
		"engine":   cfg.Browser.String(),
		"driver":   driver,
		"journeys": len(js),
	}).Info("starting journeys")

	for {
		results := runner.RunAll(ctx, js)
		failed := journey.Failed(results)
		log.WithFields(logrus.Fields{"passed": len(results) - failed, "failed": failed}).Info("pass complete")

		if repeat <= 0 {
			if failed > 0 {
				return 1
			}
			return 0
		}

		select {
		case <-ctx.Done():
			if failed > 0 {
				return 1
			}
			return 0
		case <-time.After(repeat):
		}
	}
}

func openDriver(cfg config.Config, driver string, log *logrus.Logger) (journey.OpenFunc, func(), error) {
	switch driver {
	case driverPlaywright:
		l, err := browser.NewLauncher(browser.LauncherConfigFrom(cfg), log)
		if err != nil {
			return nil, nil, err
		}
		return l.OpenSession, func() { l.Stop() }, nil
	case driverCDP:
		if cfg.Browser != config.Chromium {
			return nil, nil, errors.New("cdp driver only supports chromium")
		}
		c, err := browser.NewCDPClient(browser.CDPConfigFrom(cfg))
		if err != nil {
			return nil, nil, err
		}
		return c.OpenSession, func() { c.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", driver)
	}
}
