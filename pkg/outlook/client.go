package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/inboxcal/inboxcal/internal/config"
	"github.com/inboxcal/inboxcal/internal/utils"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

var ErrUnauthenticated = fmt.Errorf("account has no access token, authentication is required")

// graphEvent mirrors the subset of the Microsoft Graph event resource we
// consume.
type graphEvent struct {
	Id          string         `json:"id"`
	Subject     string         `json:"subject"`
	BodyPreview string         `json:"bodyPreview"`
	Start       graphDateTime  `json:"start"`
	End         graphDateTime  `json:"end"`
	Location    *graphLocation `json:"location,omitempty"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphEventCreate struct {
	Subject  string         `json:"subject"`
	Body     graphItemBody  `json:"body"`
	Start    graphDateTime  `json:"start"`
	End      graphDateTime  `json:"end"`
	Location *graphLocation `json:"location,omitempty"`
}

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Fetcher reads and writes events of one Outlook account through the
// Microsoft Graph REST API.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	windowDays int
	maxResults int
	clock      utils.Clock
}

func NewFetcher(syncCfg config.Sync) *Fetcher {
	return &Fetcher{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		windowDays: syncCfg.WindowDays,
		maxResults: syncCfg.MaxResults,
		clock:      &utils.SystemClock{},
	}
}

func (f *Fetcher) FetchEvents(ctx context.Context, acc account.Calendar) ([]calendar.Event, error) {
	if acc.AccessToken == "" {
		return nil, ErrUnauthenticated
	}

	now := f.clock.Now().UTC()
	params := url.Values{}
	params.Set("$top", fmt.Sprintf("%d", f.maxResults))
	params.Set("$orderby", "start/dateTime")
	params.Set("$filter", fmt.Sprintf("start/dateTime ge '%s' and start/dateTime le '%s'",
		now.Format(time.RFC3339), now.AddDate(0, 0, f.windowDays).Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, "GET", f.baseURL+"/me/calendar/events?"+params.Encode(), nil)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+acc.AccessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Microsoft Graph returned non-OK status: %d", resp.StatusCode)
		log.Error(err)
		return nil, err
	}

	var response struct {
		Value []graphEvent `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.Errorf("Failed to decode response: %v", err)
		return nil, err
	}

	events := make([]calendar.Event, 0, len(response.Value))
	for _, item := range response.Value {
		event, err := graphEventToEvent(item, acc.ID)
		if err != nil {
			log.Warnf("skipping Outlook event %s: %v", item.Id, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (f *Fetcher) CreateEvent(ctx context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error) {
	if acc.AccessToken == "" {
		return nil, ErrUnauthenticated
	}

	payload := graphEventCreate{
		Subject: event.Title,
		Body: graphItemBody{
			ContentType: "HTML",
			Content:     event.Description,
		},
		Start: graphDateTime{DateTime: event.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:   graphDateTime{DateTime: event.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	if event.Location != "" {
		payload.Location = &graphLocation{DisplayName: event.Location}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal event payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/me/calendar/events", bytes.NewReader(body))
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+acc.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("Microsoft Graph returned non-Created status: %d (%s)", resp.StatusCode, respBody)
		log.Error(err)
		return nil, err
	}

	var createdItem graphEvent
	if err := json.NewDecoder(resp.Body).Decode(&createdItem); err != nil {
		log.Errorf("Failed to decode response: %v", err)
		return nil, err
	}

	created, err := graphEventToEvent(createdItem, acc.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func graphEventToEvent(item graphEvent, accountId string) (calendar.Event, error) {
	start, err := parseGraphTime(item.Start)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseGraphTime(item.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid end time: %w", err)
	}

	title := item.Subject
	if title == "" {
		title = "Untitled"
	}
	location := ""
	if item.Location != nil {
		location = item.Location.DisplayName
	}

	return calendar.Event{
		ID:          item.Id,
		Title:       title,
		Description: item.BodyPreview,
		Start:       start,
		End:         end,
		Location:    location,
		Source:      calendar.SourceOutlook,
		AccountID:   accountId,
	}, nil
}

// parseGraphTime handles Graph's fraction-bearing local format next to
// plain RFC3339.
func parseGraphTime(t graphDateTime) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.9999999",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, t.DateTime); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable Graph datetime: %q", t.DateTime)
}
