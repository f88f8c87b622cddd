package caldav

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/inboxcal/inboxcal/internal/config"
	"github.com/inboxcal/inboxcal/internal/utils"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

var ErrNoServerURL = fmt.Errorf("account has no CalDAV server URL")
var ErrNoCalendarFound = fmt.Errorf("no calendar found on CalDAV server")

// basicAuthTransport adds Basic Auth to every request sent to the CalDAV
// server.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "inboxcal/1.0")
	return t.transport.RoundTrip(req)
}

// Fetcher reads and writes events of CalDAV accounts. Clients are built per
// call because every account carries its own server URL and credentials.
type Fetcher struct {
	windowDays int
	clock      utils.Clock
}

func NewFetcher(syncCfg config.Sync) *Fetcher {
	return &Fetcher{
		windowDays: syncCfg.WindowDays,
		clock:      &utils.SystemClock{},
	}
}

type accountClient struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	calendarPath string
}

func (f *Fetcher) prepareClient(ctx context.Context, acc account.Calendar) (*accountClient, error) {
	if acc.ServerURL == "" {
		return nil, ErrNoServerURL
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username:  acc.Username,
			password:  acc.Password,
			transport: http.DefaultTransport,
		},
		Timeout: 30 * time.Second,
	}

	caldavClient, err := caldav.NewClient(httpClient, acc.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, acc.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	calendarPath, err := findCalendar(ctx, caldavClient)
	if err != nil {
		return nil, err
	}

	return &accountClient{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		calendarPath: calendarPath,
	}, nil
}

// findCalendar walks the discovery chain and returns the path of the first
// calendar that can hold VEVENT components.
func findCalendar(ctx context.Context, client *caldav.Client) (string, error) {
	principalPath, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}
	homeSetPath, err := client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	calendars, err := client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if len(cal.SupportedComponentSet) == 0 {
			return cal.Path, nil
		}
		for _, comp := range cal.SupportedComponentSet {
			if comp == ical.CompEvent {
				return cal.Path, nil
			}
		}
	}
	return "", ErrNoCalendarFound
}

func (f *Fetcher) FetchEvents(ctx context.Context, acc account.Calendar) ([]calendar.Event, error) {
	client, err := f.prepareClient(ctx, acc)
	if err != nil {
		log.Errorf("Failed to prepare CalDAV client for account %s: %v", acc.ID, err)
		return nil, err
	}

	now := f.clock.Now()
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: now,
				End:   now.AddDate(0, 0, f.windowDays),
			}},
		},
	}

	objects, err := client.caldavClient.QueryCalendar(ctx, client.calendarPath, query)
	if err != nil {
		log.Errorf("Failed to query CalDAV calendar: %v", err)
		return nil, err
	}

	var events []calendar.Event
	for _, object := range objects {
		if object.Data == nil {
			continue
		}
		for _, child := range object.Data.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			event, err := componentToEvent(child, acc.ID)
			if err != nil {
				log.Warnf("skipping CalDAV event in %s: %v", object.Path, err)
				continue
			}
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *Fetcher) CreateEvent(ctx context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error) {
	client, err := f.prepareClient(ctx, acc)
	if err != nil {
		log.Errorf("Failed to prepare CalDAV client for account %s: %v", acc.ID, err)
		return nil, err
	}

	uid := uuid.NewString()
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//inboxcal//EN")
	cal.Children = append(cal.Children, eventToComponent(uid, event))

	eventPath := path.Join(client.calendarPath, fmt.Sprintf("%s.ics", uid))
	writer, err := client.webdavClient.Create(ctx, eventPath)
	if err != nil {
		log.Errorf("Failed to create event on CalDAV server: %v", err)
		return nil, err
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		log.Errorf("Failed to encode event to iCal format: %v", err)
		return nil, err
	}

	created := event
	created.ID = uid
	created.Source = calendar.SourceCalDAV
	created.AccountID = acc.ID
	return &created, nil
}

func eventToComponent(uid string, event calendar.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	return ve
}

func componentToEvent(comp *ical.Component, accountId string) (calendar.Event, error) {
	event := calendar.Event{
		Title:     "Untitled",
		Source:    calendar.SourceCalDAV,
		AccountID: accountId,
	}

	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		event.ID = uidProp.Value
	}
	if summaryProp := comp.Props.Get(ical.PropSummary); summaryProp != nil && summaryProp.Value != "" {
		event.Title = summaryProp.Value
	}
	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil {
		event.Description = descProp.Value
	}
	if locProp := comp.Props.Get(ical.PropLocation); locProp != nil {
		event.Location = locProp.Value
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return calendar.Event{}, fmt.Errorf("event has no start time")
	}
	start, err := startProp.DateTime(time.Local)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid start time: %w", err)
	}
	event.Start = start

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end, err := endProp.DateTime(time.Local)
		if err != nil {
			return calendar.Event{}, fmt.Errorf("invalid end time: %w", err)
		}
		event.End = end
	} else {
		event.End = start.Add(time.Hour)
	}

	return event, nil
}
