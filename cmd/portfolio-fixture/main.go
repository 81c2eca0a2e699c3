// Portfolio fixture site
//
// Serves a stand-in for the portfolio page together with the contact API,
// the CI events ingest endpoint and Prometheus metrics. Point the e2e suite
// at it with BASE_URL, or let the suite start it in-process with FIXTURE=true.
//
// Usage:
//
//	go run ./cmd/portfolio-fixture -addr 127.0.0.1:4173
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/cmd/portfolio-fixture/server"
	"github.com/portfolio-qa/portfolio-e2e/internal/logging"
	"github.com/portfolio-qa/portfolio-e2e/pkg/contact"
	"github.com/portfolio-qa/portfolio-e2e/pkg/ingest"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4173", "Listen address")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logging.New(*level)

	deps, cleanup, err := buildDeps(log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure fixture")
	}
	defer cleanup()

	cfg := server.DefaultConfig()
	cfg.Addr = *addr
	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		log.WithError(err).Fatal("failed to create server")
	}

	listening, err := srv.Start()
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
	log.WithField("url", "http://"+listening).Info("fixture site ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}

// buildDeps wires the contact and ingest handlers from the environment.
func buildDeps(log *logrus.Logger) (server.Deps, func(), error) {
	noop := func() {}

	ccfg, err := contact.LoadConfig()
	if err != nil {
		return server.Deps{}, noop, err
	}
	var mailer contact.Mailer = contact.LogMailer{Log: log}
	if ccfg.ResendAPIKey != "" {
		mailer = contact.NewResendMailer(ccfg.ResendEndpoint, ccfg.ResendAPIKey, log)
	}

	icfg, err := ingest.LoadConfig()
	if err != nil {
		return server.Deps{}, noop, err
	}

	var (
		store   ingest.Store
		events  *ingest.ReadHandler
		cleanup = noop
	)
	if icfg.DBPath != "" {
		db, err := ingest.OpenSQLite(icfg.DBPath)
		if err != nil {
			return server.Deps{}, noop, err
		}
		store = db
		events = ingest.NewReadHandler(icfg.Token, db, log)
		cleanup = func() { db.Close() }
	}

	var fwd *ingest.Forwarder
	if icfg.DownstreamURL != "" {
		fwd = ingest.NewForwarder(icfg.DownstreamURL, icfg.DownstreamToken)
	}

	return server.Deps{
		Contact: contact.NewHandler(ccfg, mailer, log),
		Ingest:  ingest.NewHandler(icfg.Token, store, fwd, log),
		Events:  events,
		Log:     log,
	}, cleanup, nil
}
