// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: pruning the event log
// and reloading the GeoIP database when it changes on disk.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/oblog-go/internal/geoip"
	"github.com/olegiv/oblog-go/internal/service"
)

// DefaultEventRetention is how long event log rows are kept.
const DefaultEventRetention = 90 * 24 * time.Hour

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron      *cron.Cron
	events    *service.EventService
	geo       *geoip.Resolver
	retention time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler. The geo resolver may be nil when GeoIP is not
// configured.
func New(events *service.EventService, geo *geoip.Resolver, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		events:    events,
		geo:       geo,
		retention: DefaultEventRetention,
		logger:    logger,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Prune old events nightly.
	if _, err := s.cron.AddFunc("15 3 * * *", s.pruneEvents); err != nil {
		return err
	}
	// Pick up replaced GeoIP databases hourly.
	if s.geo != nil {
		if _, err := s.cron.AddFunc("@hourly", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) pruneEvents() {
	if err := s.events.DeleteOldEvents(context.Background(), s.retention); err != nil {
		s.logger.Error("pruning events failed", "error", err)
		return
	}
	s.logger.Info("event log pruned", "retention", s.retention)
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Warn("geoip reload failed", "error", err)
	}
}
