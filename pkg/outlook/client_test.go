package outlook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inboxcal/inboxcal/internal/utils"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() account.Calendar {
	return account.Calendar{
		ID:          "acc-1",
		Provider:    account.ProviderOutlook,
		Email:       "user@example.com",
		AccessToken: "token-123",
		Enabled:     true,
	}
}

func newTestFetcher(serverURL string) *Fetcher {
	return &Fetcher{
		baseURL:    serverURL,
		httpClient: &http.Client{},
		windowDays: 30,
		maxResults: 100,
		clock:      &utils.MockClock{FixedNow: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)},
	}
}

func TestFetcher_FetchEvents(t *testing.T) {
	t.Run("should map Graph events to calendar events", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/me/calendar/events", r.URL.Path)
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{
						"id":          "ev-1",
						"subject":     "Team Standup",
						"bodyPreview": "Daily sync",
						"start":       map[string]string{"dateTime": "2024-01-15T09:00:00.0000000", "timeZone": "UTC"},
						"end":         map[string]string{"dateTime": "2024-01-15T09:30:00.0000000", "timeZone": "UTC"},
						"location":    map[string]string{"displayName": "Room 4"},
					},
				},
			})
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)

		// when
		events, err := fetcher.FetchEvents(context.Background(), testAccount())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "ev-1", events[0].ID)
		assert.Equal(t, "Team Standup", events[0].Title)
		assert.Equal(t, "Room 4", events[0].Location)
		assert.Equal(t, calendar.SourceOutlook, events[0].Source)
		assert.Equal(t, "acc-1", events[0].AccountID)
		assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), events[0].Start)
	})

	t.Run("should use Untitled for events without a subject", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{
						"id":    "ev-2",
						"start": map[string]string{"dateTime": "2024-01-15T09:00:00"},
						"end":   map[string]string{"dateTime": "2024-01-15T10:00:00"},
					},
				},
			})
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)

		// when
		events, err := fetcher.FetchEvents(context.Background(), testAccount())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Untitled", events[0].Title)
	})

	t.Run("should skip events with unparseable times", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{
						"id":    "ev-bad",
						"start": map[string]string{"dateTime": "not-a-date"},
						"end":   map[string]string{"dateTime": "2024-01-15T10:00:00"},
					},
					{
						"id":    "ev-good",
						"start": map[string]string{"dateTime": "2024-01-15T09:00:00"},
						"end":   map[string]string{"dateTime": "2024-01-15T10:00:00"},
					},
				},
			})
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)

		// when
		events, err := fetcher.FetchEvents(context.Background(), testAccount())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "ev-good", events[0].ID)
	})

	t.Run("should return error on non-OK status", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)

		// when
		events, err := fetcher.FetchEvents(context.Background(), testAccount())

		// then
		assert.Error(t, err)
		assert.Nil(t, events)
	})

	t.Run("should reject account without access token", func(t *testing.T) {
		// given
		fetcher := newTestFetcher("http://unused")
		acc := testAccount()
		acc.AccessToken = ""

		// when
		events, err := fetcher.FetchEvents(context.Background(), acc)

		// then
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, events)
	})
}

func TestFetcher_CreateEvent(t *testing.T) {
	t.Run("should post event and return the created representation", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/me/calendar/events", r.URL.Path)
			var payload graphEventCreate
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "Dentist", payload.Subject)
			require.NotNil(t, payload.Location)
			assert.Equal(t, "Main St 5", payload.Location.DisplayName)

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(graphEvent{
				Id:      "created-1",
				Subject: payload.Subject,
				Start:   payload.Start,
				End:     payload.End,
				Location: &graphLocation{
					DisplayName: payload.Location.DisplayName,
				},
			})
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)
		start := time.Date(2024, 2, 1, 14, 0, 0, 0, time.UTC)

		// when
		created, err := fetcher.CreateEvent(context.Background(), testAccount(), calendar.Event{
			Title:    "Dentist",
			Start:    start,
			End:      start.Add(time.Hour),
			Location: "Main St 5",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "created-1", created.ID)
		assert.Equal(t, "Dentist", created.Title)
		assert.Equal(t, start, created.Start)
		assert.Equal(t, calendar.SourceOutlook, created.Source)
	})

	t.Run("should return error on non-Created status", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()
		fetcher := newTestFetcher(server.URL)

		// when
		created, err := fetcher.CreateEvent(context.Background(), testAccount(), calendar.Event{Title: "x"})

		// then
		assert.Error(t, err)
		assert.Nil(t, created)
	})
}
