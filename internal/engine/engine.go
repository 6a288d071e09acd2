package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/ethiopian"
)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode            string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath       string // Absolute path to the .vcf file
	WebURL          string // CardDAV or WebDAV URL
	WebUser         string // HTTP Basic Auth Username
	WebPass         string // HTTP Basic Auth Password
	ReminderTrigger string // ISO8601 duration string (e.g., "-P1D")
}

// Generator turns a vCard source into an iCalendar feed of Ethiopian-calendar
// birthdays. Each anniversary keeps its Ethiopian month and day, so its
// Gregorian date moves by a day around Ethiopian leap years.
type Generator struct {
	Clock   Clock          // Interface for time mocking.
	Fetcher ContactFetcher // Interface for network abstraction.

	// FormatSummary allows callers to inject localized strings into the logic layer.
	FormatSummary func(name string, age int, yearKnown bool) string
}

type syncStats struct{ processed, withBday, today int }

// RunSync executes the fetching, parsing, and generation pipeline.
// It returns the ICS data, the list of contacts, the count of birthdays today, and any error.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) ([]byte, []BirthdayEntry, int, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	// 1. Open the vCard source (file or remote address book)
	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		// A cancelled context wins over the transport error it caused.
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	// Read-only source: a failed Close leaves nothing to recover.
	defer func() { _ = reader.Close() }()

	// Stop before decoding if the caller gave up while the stream was opening.
	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}

	// 2. Convert birthdays and render the feed
	ics, contacts, count, err := g.generateCalendar(ctx, reader, cfg.ReminderTrigger)

	// 3. Report timing
	if err == nil {
		log.Debug("Sync finished", config.LogKeyDuration, time.Since(start).Milliseconds())
	}
	return ics, contacts, count, err
}

// acquireStream opens the appropriate data source based on configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

// generateCalendar parses the vCard stream and builds both the feed and the contact list.
// Each birthday is converted once to the Ethiopian calendar, then projected
// onto the previous, current and next Ethiopian years.
func (g *Generator) generateCalendar(ctx context.Context, r io.Reader, reminderTrigger string) ([]byte, []BirthdayEntry, int, error) {
	// "Today" is the Ethiopian date of the clock's local calendar day. A person
	// born on 1 Meskerem celebrates on the local New Year, whatever UTC says.
	now := g.Clock.Now()
	today, err := Today(g.Clock)
	if err != nil {
		return nil, nil, 0, err
	}

	// Calendar headers
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 REFRESH-INTERVAL: hint for subscribing clients.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// DTSTAMP is the only UTC value in the feed. Event dates stay all-day
	// values in the clock's location.
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	decoder := vcard.NewDecoder(r)
	var stats syncStats
	var contacts []BirthdayEntry

	for {
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep going: one malformed card must not hide the others.
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, err)
			continue
		}

		stats.processed++

		// BDAY is optional in vCard; contacts without one are simply skipped.
		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}

		gregBirth, yearKnown, err := parseDate(bday.Value)
		if err != nil {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyValue, bday.Value)
			continue
		}
		// Births before 1 Meskerem 1 E.C. have no Ethiopian date.
		ethBirth, err := gregBirth.Ethiopian()
		if err != nil {
			slog.Debug(config.MsgSkippedEpoch,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyValue, bday.Value,
				config.LogKeyError, err)
			continue
		}
		stats.withBday++

		// Name Strategy: FN (Formatted) > N (Structured) > Fallback
		name := config.FallbackName
		if fn := card.Get(config.VCardFN); fn != nil {
			name = fn.Value
		} else if n := card.Get(config.VCardN); n != nil {
			name = n.Value
		}

		// Deterministic UID generation for stability across refreshes
		input := fmt.Sprintf(config.FormatHashInput, name, gregBirth.String(), config.UIDSalt)
		hash := sha256.Sum256([]byte(input))
		uidBase := fmt.Sprintf("%x", hash[:config.UIDHashLength])

		entry := BirthdayEntry{
			UID:            uidBase,
			Name:           name,
			GregorianBirth: gregBirth,
			EthiopianBirth: ethBirth,
			YearKnown:      yearKnown,
		}
		// The contact list shows the next Ethiopian anniversary, not the Gregorian one.
		if next, age, err := calculateNextOccurrence(today, ethBirth, yearKnown); err == nil {
			entry.NextOccurrence = next
			entry.AgeNext = age
			entry.NextGregorian, _ = next.Gregorian()
		}
		contacts = append(contacts, entry)

		events, isToday := g.createEvents(name, ethBirth, yearKnown, reminderTrigger, today, now.Location(), uidBase)
		if isToday {
			stats.today++
			slog.Info(config.MsgBdayToday,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, name,
				config.LogKeyDOB, gregBirth.String(),
				config.LogKeyEthDOB, ethBirth.String())
		}

		// Every event of a sync shares the same DTSTAMP.
		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	if len(cal.Children) == 0 {
		// A valid empty VCALENDAR keeps clients from flagging the feed as broken.
		g.logSuccess(stats)
		return []byte(config.StubVCalendar), contacts, 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(stats)
	return buf.Bytes(), contacts, stats.today, nil
}

// logSuccess logs the final statistics of the generation process.
func (g *Generator) logSuccess(stats syncStats) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.processed),
			slog.Int(config.LogKeyFound, stats.withBday),
			slog.Int(config.LogKeyToday, stats.today),
		),
	)
}

// calculateNextOccurrence returns the first Ethiopian anniversary on or after today.
func calculateNextOccurrence(today, birth ethiopian.Date, yearKnown bool) (ethiopian.Date, int, error) {
	candidate, err := birth.AnniversaryIn(today.Year)
	if err != nil {
		return ethiopian.Date{}, 0, err
	}
	if candidate.Before(today) {
		if candidate, err = birth.AnniversaryIn(today.Year + 1); err != nil {
			return ethiopian.Date{}, 0, err
		}
	}

	// Age is meaningless for truncated (--MM-DD) birthdays.
	ageNext := 0
	if yearKnown {
		ageNext = candidate.Year - birth.Year
	}
	return candidate, ageNext, nil
}

// createEvents generates events for the previous, current and next Ethiopian years.
// It never creates events before the person is born.
func (g *Generator) createEvents(name string, birth ethiopian.Date, yearKnown bool, reminderTrigger string, today ethiopian.Date, loc *time.Location, uidBase string) ([]*ical.Event, bool) {
	var events []*ical.Event
	isToday := false

	for _, y := range []int{today.Year - 1, today.Year, today.Year + 1} {
		if yearKnown && y < birth.Year {
			continue
		}
		// Pagume 6 births fall back to Pagume 5 in common years.
		anniversary, err := birth.AnniversaryIn(y)
		if err != nil {
			continue
		}
		greg, err := anniversary.Gregorian()
		if err != nil {
			continue
		}
		if anniversary == today {
			isToday = true
		}

		age := 0
		if yearKnown {
			age = y - birth.Year
		}

		summary := fmt.Sprintf(config.FallbackSummary, name)
		if g.FormatSummary != nil {
			summary = g.FormatSummary(name, age, yearKnown)
		}

		// The UID carries the Ethiopian year so each occurrence stays distinct.
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropDescription, fmt.Sprintf(config.FormatEthiopianDescription, anniversary))

		// All-day event on the Gregorian image of the anniversary (VALUE=DATE).
		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(greg.In(loc))
		event.Props.Set(dtStartProp)

		if reminderTrigger != "" {
			addAlarm(event, reminderTrigger, summary)
		}
		events = append(events, event)
	}
	return events, isToday
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Assign the raw value: SetText would add VALUE=TEXT, and TRIGGER must
	// remain a DURATION (e.g. "-P1D" or "-PT2H").
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// parseDate handles the vCard BDAY formats and returns the Gregorian birth date.
func parseDate(value string) (ethiopian.GregorianDate, bool, error) {
	// Full dates, most common layout first.
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return ethiopian.FromTime(t), true, nil
		}
	}

	// Truncated dates (year unknown) are anchored in a leap year so --02-29 survives.
	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			g, err := ethiopian.NewGregorian(config.DefaultLeapYear, int(t.Month()), t.Day())
			if err != nil {
				return ethiopian.GregorianDate{}, false, err
			}
			return g, false, nil
		}
	}

	return ethiopian.GregorianDate{}, false, errors.New(config.ErrDateParse)
}
