package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/engine"
	"github.com/tartampluch/go-ethiocal/internal/ethiopian"
)

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Conversion is the JSON body returned by the conversion endpoints.
type Conversion struct {
	Ethiopian string `json:"ethiopian"`
	Gregorian string `json:"gregorian"`
	MonthName string `json:"month_name"`
	LeapYear  bool   `json:"leap_year"`
}

// NewConversion describes a pair of equivalent dates.
func NewConversion(e ethiopian.Date, g ethiopian.GregorianDate) Conversion {
	return Conversion{
		Ethiopian: e.String(),
		Gregorian: g.String(),
		MonthName: ethiopian.MonthName(e.Month),
		LeapYear:  e.IsLeap(),
	}
}

// ErrorResponse is the JSON body of every rejected API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CalendarServer serves the generated ICS feed and a small conversion API.
type CalendarServer struct {
	// cache uses atomic.Pointer for lock-free reads: the feed is read often
	// and only replaced after a sync.
	cache atomic.Pointer[cacheItem]
	Port  string
	Clock engine.Clock
}

// NewCalendarServer creates a new instance of the server.
func NewCalendarServer(port string) *CalendarServer {
	return &CalendarServer{
		Port:  port,
		Clock: engine.RealClock{},
	}
}

// Routes builds the chi router exposing the feed and the conversion API.
func (s *CalendarServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// The feed handler answers 405 itself so clients get the Allow header.
	r.HandleFunc(config.RouteRoot, s.handleCalendarRequest)
	r.Get(config.RouteToGregorian, s.handleToGregorian)
	r.Get(config.RouteToEthiopian, s.handleToEthiopian)
	r.Get(config.RouteToday, s.handleToday)
	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Routes(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served content.
func (s *CalendarServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	item := &cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// handleToGregorian converts the Ethiopian date in the path.
func (s *CalendarServer) handleToGregorian(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, config.RouteParamDate)
	e, err := ethiopian.Parse(raw)
	if err != nil {
		s.rejectConversion(w, r, raw, err)
		return
	}
	g, err := ethiopian.ToGregorian(e)
	if err != nil {
		s.rejectConversion(w, r, raw, err)
		return
	}
	respondWithJSON(w, http.StatusOK, NewConversion(e, g))
}

// handleToEthiopian converts the Gregorian date in the path.
func (s *CalendarServer) handleToEthiopian(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, config.RouteParamDate)
	g, err := ethiopian.ParseGregorian(raw)
	if err != nil {
		s.rejectConversion(w, r, raw, err)
		return
	}
	e, err := ethiopian.ToEthiopian(g)
	if err != nil {
		s.rejectConversion(w, r, raw, err)
		return
	}
	respondWithJSON(w, http.StatusOK, NewConversion(e, g))
}

// handleToday reports the current date on both calendars.
func (s *CalendarServer) handleToday(w http.ResponseWriter, r *http.Request) {
	today, err := engine.Today(s.Clock)
	if err != nil {
		slog.Error(config.ErrToday,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{Error: config.ErrToday})
		return
	}
	g, err := today.Gregorian()
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{Error: config.ErrToday})
		return
	}
	respondWithJSON(w, http.StatusOK, NewConversion(today, g))
}

// rejectConversion answers 400 for dates that cannot be converted.
func (s *CalendarServer) rejectConversion(w http.ResponseWriter, r *http.Request, raw string, err error) {
	slog.Debug(config.MsgConvertFailed,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyRoute, r.URL.Path,
		config.LogKeyValue, raw,
		config.LogKeyError, err,
	)
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func respondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
