package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-ethiocal/internal/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// -----------------------------------------------------------------------------
// Feed Handler
// -----------------------------------------------------------------------------

func TestHandler_ServingContent(t *testing.T) {
	srv := NewCalendarServer("0")
	expectedICS := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")
	srv.Update(expectedICS)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	assert.NotEmpty(t, resp.Header.Get(config.HeaderLastModified))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, expectedICS, body)
}

func TestHandler_Head(t *testing.T) {
	srv := NewCalendarServer("0")
	srv.Update([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR"))

	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, httptest.NewRequest(http.MethodHead, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(config.HeaderETag))
	assert.Empty(t, w.Body.Bytes(), "HEAD must not carry a body")
}

func TestHandler_Caching(t *testing.T) {
	srv := NewCalendarServer("0")
	srv.Update([]byte("DATA_VERSION_1"))

	w1 := httptest.NewRecorder()
	srv.handleCalendarRequest(w1, httptest.NewRequest(http.MethodGet, "/", nil))
	etag := w1.Result().Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set(config.HeaderIfNoneMatch, etag)
	w2 := httptest.NewRecorder()
	srv.handleCalendarRequest(w2, req2)

	resp2 := w2.Result()
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	body, _ := io.ReadAll(resp2.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	// A new feed changes the ETag.
	srv.Update([]byte("DATA_VERSION_2"))
	w3 := httptest.NewRecorder()
	srv.handleCalendarRequest(w3, req2)
	assert.Equal(t, http.StatusOK, w3.Code)
	assert.NotEqual(t, etag, w3.Header().Get(config.HeaderETag))
}

func TestHandler_IfModifiedSince(t *testing.T) {
	srv := NewCalendarServer("0")
	srv.Update([]byte("DATA"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(config.HeaderIfModifiedSince, time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(config.HeaderIfModifiedSince, time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
	w = httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewCalendarServer("0")

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, config.AllowedMethods, w.Header().Get(config.HeaderAllow))
}

func TestHandler_Initializing(t *testing.T) {
	srv := NewCalendarServer("0")

	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, config.RetryAfterSeconds, w.Header().Get(config.HeaderRetryAfter))
}

// -----------------------------------------------------------------------------
// Conversion API
// -----------------------------------------------------------------------------

func TestAPI_Conversions(t *testing.T) {
	srv := NewCalendarServer("0")
	h := srv.Routes()

	tests := []struct {
		name string
		path string
		want Conversion
	}{
		{
			name: "Ethiopian new year to Gregorian",
			path: "/convert/gregorian/2017-01-01",
			want: Conversion{Ethiopian: "2017-01-01", Gregorian: "2024-09-11", MonthName: "Meskerem", LeapYear: false},
		},
		{
			name: "Pagume 6 to Gregorian",
			path: "/convert/gregorian/2016-13-06",
			want: Conversion{Ethiopian: "2016-13-06", Gregorian: "2024-09-10", MonthName: "Pagume", LeapYear: true},
		},
		{
			name: "Gregorian to Ethiopian",
			path: "/convert/ethiopian/2025-06-15",
			want: Conversion{Ethiopian: "2017-10-08", Gregorian: "2025-06-15", MonthName: "Sene", LeapYear: false},
		},
		{
			name: "Gregorian leap day to Ethiopian",
			path: "/convert/ethiopian/2000-02-29",
			want: Conversion{Ethiopian: "1992-06-22", Gregorian: "2000-02-29", MonthName: "Yekatit", LeapYear: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, config.MimeJSON, w.Header().Get(config.HeaderContentType))

			var got Conversion
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPI_RejectsInvalidDates(t *testing.T) {
	h := NewCalendarServer("0").Routes()

	paths := []string{
		"/convert/gregorian/2017-13-06", // 2017 is a common year
		"/convert/gregorian/2017-14-01",
		"/convert/gregorian/2017-01-31",
		"/convert/gregorian/not-a-date",
		"/convert/gregorian/0-01-01",
		"/convert/ethiopian/2023-02-29",
		"/convert/ethiopian/0005-01-01", // before the Ethiopian epoch
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAPI_Today(t *testing.T) {
	srv := NewCalendarServer("0")
	srv.Clock = fixedClock{t: time.Date(2023, 9, 11, 12, 0, 0, 0, time.UTC)}

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/today", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got Conversion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, Conversion{Ethiopian: "2016-01-01", Gregorian: "2023-09-11", MonthName: "Meskerem", LeapYear: true}, got)
}

func TestAPI_TodayBeforeEpoch(t *testing.T) {
	srv := NewCalendarServer("0")
	srv.Clock = fixedClock{t: time.Date(3, 1, 1, 0, 0, 0, 0, time.UTC)}

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/today", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// -----------------------------------------------------------------------------
// Concurrency Tests (Race Detection)
// -----------------------------------------------------------------------------

// TestServer_RaceCondition runs writers and readers concurrently.
// Run this with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewCalendarServer("0")
	var wg sync.WaitGroup
	end := time.Now().Add(500 * time.Millisecond)

	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(1 * time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 20; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				srv.handleCalendarRequest(w, httptest.NewRequest(http.MethodGet, "/", nil))

				if code := w.Code; code != http.StatusOK && code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

func TestServer_PortRequired(t *testing.T) {
	err := NewCalendarServer("").Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrPortRequired)
}

func TestServer_Lifecycle(t *testing.T) {
	const port = "18099"

	srv := NewCalendarServer(port)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	base := "http://127.0.0.1:" + port

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(base + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))

	resp, err = http.Get(base + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	resp, err = http.Get(base + "/convert/ethiopian/2024-09-11")
	require.NoError(t, err)
	var conv Conversion
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	_ = resp.Body.Close()
	assert.Equal(t, "2017-01-01", conv.Ethiopian)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}
