// Package daemon keeps the Ethiopian birthday feed fresh: it periodically
// regenerates the calendar from the configured address book and publishes it
// through the HTTP server.
package daemon

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/engine"
	"github.com/tartampluch/go-ethiocal/internal/locale"
	"github.com/tartampluch/go-ethiocal/internal/server"
	"github.com/zalando/go-keyring"
)

// Service wires settings, the generator and the server together.
type Service struct {
	Settings *config.Settings
	Server   *server.CalendarServer
	Fetcher  engine.ContactFetcher
	Clock    engine.Clock
	Catalog  *locale.Catalog

	// LookupPassword returns the address book password for a user.
	// It defaults to the OS keyring.
	LookupPassword func(service, user string) (string, error)

	refresh chan struct{}

	mu         sync.RWMutex
	contacts   []engine.BirthdayEntry
	todayCount int
}

// New constructs a Service with production dependencies.
func New(settings *config.Settings, catalog *locale.Catalog) *Service {
	clock := engine.RealClock{}
	srv := server.NewCalendarServer(strconv.Itoa(settings.Port))
	srv.Clock = clock

	return &Service{
		Settings:       settings,
		Server:         srv,
		Fetcher:        engine.NewHTTPFetcher(),
		Clock:          clock,
		Catalog:        catalog,
		LookupPassword: keyring.Get,
		refresh:        make(chan struct{}, config.ChannelBufferSize),
	}
}

// Run starts the HTTP server and the background worker, and blocks until ctx
// is cancelled or the server fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, config.ChannelBufferSize)
	go func() {
		serverErr <- s.Server.Start(ctx)
	}()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.backgroundWorker(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = <-serverErr
	case err = <-serverErr:
		if err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyComponent, config.CompDaemon,
				config.LogKeyError, err)
		}
		cancel()
	}
	<-workerDone
	return err
}

// Refresh asks the worker for an immediate sync. It never blocks.
func (s *Service) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Contacts returns a copy of the contacts found by the last successful sync.
func (s *Service) Contacts() []engine.BirthdayEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]engine.BirthdayEntry(nil), s.contacts...)
}

// TodayCount returns the number of birthdays falling today, or -1 if the
// last sync failed.
func (s *Service) TodayCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.todayCount
}

// backgroundWorker manages the periodic synchronization schedule.
func (s *Service) backgroundWorker(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	s.PerformSync(ctx, false)

	interval := s.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return
		case <-s.refresh:
			s.PerformSync(ctx, true)
		case <-ticker.C:
			s.PerformSync(ctx, false)
		}
	}
}

func (s *Service) interval() time.Duration {
	minutes := s.Settings.RefreshMinutes
	if minutes <= 0 {
		minutes = config.DefaultRefreshMin
	}
	return time.Duration(minutes) * time.Minute
}

// PerformSync regenerates the feed and publishes it. Failures keep the
// previously served feed.
func (s *Service) PerformSync(ctx context.Context, manual bool) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompDaemon,
		config.LogKeyManual, manual)

	gen := &engine.Generator{
		Clock:   s.Clock,
		Fetcher: s.Fetcher,
	}
	if s.Catalog != nil {
		gen.FormatSummary = s.Catalog.SummaryFormatter()
	}

	icsData, contacts, countToday, err := gen.RunSync(ctx, s.SyncConfig())
	if err != nil {
		slog.Error(config.MsgSyncFailed,
			config.LogKeyComponent, config.CompDaemon,
			config.LogKeyError, err)
		s.mu.Lock()
		s.todayCount = -1
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.contacts = contacts
	s.todayCount = countToday
	s.mu.Unlock()

	s.Server.Update(icsData)
	slog.Info(config.MsgSyncDone,
		config.LogKeyComponent, config.CompDaemon,
		config.LogKeyToday, countToday)
}

// SyncConfig assembles the engine configuration from settings and the keyring.
func (s *Service) SyncConfig() engine.SyncConfig {
	src := s.Settings.Source
	cfg := engine.SyncConfig{
		Mode:            src.Mode,
		LocalPath:       src.LocalPath,
		WebURL:          src.URL,
		WebUser:         src.User,
		ReminderTrigger: s.Settings.ReminderTrigger(),
	}

	if cfg.WebUser != "" && s.LookupPassword != nil {
		if p, err := s.LookupPassword(config.KeyringService, cfg.WebUser); err == nil {
			cfg.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyComponent, config.CompDaemon,
				config.LogKeyUser, cfg.WebUser,
				config.LogKeyError, err)
		}
	}
	return cfg
}
