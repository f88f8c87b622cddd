package google

import (
	"context"
	"fmt"
	"time"

	"github.com/inboxcal/inboxcal/internal/config"
	"github.com/inboxcal/inboxcal/internal/utils"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrUnauthenticated = fmt.Errorf("account has no access token, authentication is required")

const calendarId = "primary"

// Fetcher reads and writes events of one Google Calendar account. A fresh
// API client is built per call from the tokens stored on the account
// descriptor; oauth2 transparently refreshes an expired access token.
type Fetcher struct {
	clientId     string
	clientSecret string
	windowDays   int
	maxResults   int64
	clock        utils.Clock
}

func NewFetcher(cfg config.Google, syncCfg config.Sync) *Fetcher {
	return &Fetcher{
		clientId:     cfg.ClientId,
		clientSecret: cfg.ClientSecret,
		windowDays:   syncCfg.WindowDays,
		maxResults:   int64(syncCfg.MaxResults),
		clock:        &utils.SystemClock{},
	}
}

func (f *Fetcher) prepareService(ctx context.Context, acc account.Calendar) (*gcal.Service, error) {
	if acc.AccessToken == "" {
		return nil, ErrUnauthenticated
	}

	conf := &oauth2.Config{
		ClientID:     f.clientId,
		ClientSecret: f.clientSecret,
		Endpoint:     oauthgoogle.Endpoint,
		Scopes:       []string{gcal.CalendarScope},
	}
	token := &oauth2.Token{
		AccessToken:  acc.AccessToken,
		RefreshToken: acc.RefreshToken,
	}

	service, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		err := fmt.Errorf("unable to create Google Calendar client: %v", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

func (f *Fetcher) FetchEvents(ctx context.Context, acc account.Calendar) ([]calendar.Event, error) {
	service, err := f.prepareService(ctx, acc)
	if err != nil {
		return nil, err
	}

	now := f.clock.Now()
	googleEvents, err := service.Events.List(calendarId).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, f.windowDays).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(f.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}

	events := make([]calendar.Event, 0, len(googleEvents.Items))
	for _, item := range googleEvents.Items {
		event, err := googleEventToEvent(item, acc.ID)
		if err != nil {
			log.Warnf("skipping Google event %s: %v", item.Id, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (f *Fetcher) CreateEvent(ctx context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error) {
	service, err := f.prepareService(ctx, acc)
	if err != nil {
		return nil, err
	}

	log.Debugf("Creating event %q in Google Calendar of account %s", event.Title, acc.Email)
	result, err := service.Events.Insert(calendarId, &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
		},
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}

	created, err := googleEventToEvent(result, acc.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func googleEventToEvent(item *gcal.Event, accountId string) (calendar.Event, error) {
	start, err := parseGoogleTime(item.Start)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseGoogleTime(item.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid end time: %w", err)
	}

	title := item.Summary
	if title == "" {
		title = "Untitled"
	}

	return calendar.Event{
		ID:          item.Id,
		Title:       title,
		Description: item.Description,
		Start:       start,
		End:         end,
		Location:    item.Location,
		Source:      calendar.SourceGoogle,
		AccountID:   accountId,
		Color:       item.ColorId,
	}, nil
}

// parseGoogleTime accepts both timed events (DateTime) and all-day events
// (Date only).
func parseGoogleTime(t *gcal.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	return time.ParseInLocation("2006-01-02", t.Date, time.Local)
}
