package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	eventsByAccount map[string][]calendar.Event
	err             error
	failAccounts    map[string]bool
	created         []calendar.Event
}

func (s *stubFetcher) FetchEvents(_ context.Context, acc account.Calendar) ([]calendar.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.failAccounts[acc.ID] {
		return nil, errors.New("remote API unavailable")
	}
	return s.eventsByAccount[acc.ID], nil
}

func (s *stubFetcher) CreateEvent(_ context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	event.AccountID = acc.ID
	s.created = append(s.created, event)
	return &event, nil
}

type stubMailFetcher struct {
	events []calendar.Event
	err    error
}

func (s *stubMailFetcher) FetchEvents(_ context.Context, _ account.Mailbox) ([]calendar.Event, error) {
	return s.events, s.err
}

func newTestCoordinator(google, outlook *stubFetcher, mail *stubMailFetcher) *CoordinatorImpl {
	if google == nil {
		google = &stubFetcher{}
	}
	if outlook == nil {
		outlook = &stubFetcher{}
	}
	if mail == nil {
		mail = &stubMailFetcher{}
	}
	return NewCoordinator(google, outlook, &stubFetcher{}, mail)
}

func event(title string, start time.Time, source calendar.Source, accountId string) calendar.Event {
	return calendar.Event{
		ID:        title + "-" + accountId,
		Title:     title,
		Start:     start,
		End:       start.Add(time.Hour),
		Source:    source,
		AccountID: accountId,
	}
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

	t.Run("orders merged events ascending by start time", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {
				event("Late", base.Add(2*time.Hour), calendar.SourceGoogle, "g1"),
				event("Early", base, calendar.SourceGoogle, "g1"),
				event("Middle", base.Add(time.Hour), calendar.SourceGoogle, "g1"),
			},
		}}
		coordinator := newTestCoordinator(google, nil, nil)

		result := coordinator.SyncAll(ctx,
			[]account.Calendar{{ID: "g1", Provider: account.ProviderGoogle, Enabled: true}}, nil)

		require.Len(t, result, 3)
		assert.Equal(t, "Early", result[0].Title)
		assert.Equal(t, "Middle", result[1].Title)
		assert.Equal(t, "Late", result[2].Title)
	})

	t.Run("drops later duplicates with the same title and start", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {event("Standup", base, calendar.SourceGoogle, "g1")},
		}}
		outlook := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"o1": {event("Standup", base, calendar.SourceOutlook, "o1")},
		}}
		coordinator := newTestCoordinator(google, outlook, nil)

		result := coordinator.SyncAll(ctx, []account.Calendar{
			{ID: "g1", Provider: account.ProviderGoogle, Enabled: true},
			{ID: "o1", Provider: account.ProviderOutlook, Enabled: true},
		}, nil)

		require.Len(t, result, 1)
		// First in concatenation order wins; calendar accounts come first, in list order.
		assert.Equal(t, calendar.SourceGoogle, result[0].Source)
	})

	t.Run("same title at different instants is not a duplicate", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {
				event("Standup", base, calendar.SourceGoogle, "g1"),
				event("Standup", base.Add(24*time.Hour), calendar.SourceGoogle, "g1"),
			},
		}}
		coordinator := newTestCoordinator(google, nil, nil)

		result := coordinator.SyncAll(ctx,
			[]account.Calendar{{ID: "g1", Provider: account.ProviderGoogle, Enabled: true}}, nil)

		assert.Len(t, result, 2)
	})

	t.Run("one failing account does not affect the others", func(t *testing.T) {
		google := &stubFetcher{
			eventsByAccount: map[string][]calendar.Event{
				"g1": {event("First", base, calendar.SourceGoogle, "g1")},
				"g3": {event("Third", base.Add(time.Hour), calendar.SourceGoogle, "g3")},
			},
			failAccounts: map[string]bool{"g2": true},
		}
		coordinator := newTestCoordinator(google, nil, nil)

		result := coordinator.SyncAll(ctx, []account.Calendar{
			{ID: "g1", Provider: account.ProviderGoogle, Enabled: true},
			{ID: "g2", Provider: account.ProviderGoogle, Enabled: true},
			{ID: "g3", Provider: account.ProviderGoogle, Enabled: true},
		}, nil)

		require.Len(t, result, 2)
		assert.Equal(t, "First", result[0].Title)
		assert.Equal(t, "Third", result[1].Title)
	})

	t.Run("disabled accounts are not fetched", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {event("Hidden", base, calendar.SourceGoogle, "g1")},
		}}
		coordinator := newTestCoordinator(google, nil, nil)

		result := coordinator.SyncAll(ctx,
			[]account.Calendar{{ID: "g1", Provider: account.ProviderGoogle, Enabled: false}}, nil)

		assert.Empty(t, result)
	})

	t.Run("mail events merge after calendar events", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {event("Planning", base, calendar.SourceGoogle, "g1")},
		}}
		mail := &stubMailFetcher{events: []calendar.Event{
			event("Planning", base, calendar.SourceMail, calendar.MailboxAccountID),
			event("Dinner", base.Add(-time.Hour), calendar.SourceMail, calendar.MailboxAccountID),
		}}
		coordinator := newTestCoordinator(google, nil, mail)

		result := coordinator.SyncAll(ctx,
			[]account.Calendar{{ID: "g1", Provider: account.ProviderGoogle, Enabled: true}},
			[]account.Mailbox{{ID: "m1", Enabled: true}})

		require.Len(t, result, 2)
		assert.Equal(t, "Dinner", result[0].Title)
		assert.Equal(t, "Planning", result[1].Title)
		assert.Equal(t, calendar.SourceGoogle, result[1].Source)
	})

	t.Run("failing mailbox degrades to calendar-only results", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {event("Planning", base, calendar.SourceGoogle, "g1")},
		}}
		mail := &stubMailFetcher{err: errors.New("imap login failed")}
		coordinator := newTestCoordinator(google, nil, mail)

		result := coordinator.SyncAll(ctx,
			[]account.Calendar{{ID: "g1", Provider: account.ProviderGoogle, Enabled: true}},
			[]account.Mailbox{{ID: "m1", Enabled: true}})

		require.Len(t, result, 1)
		assert.Equal(t, "Planning", result[0].Title)
	})

	t.Run("account with unknown provider contributes nothing", func(t *testing.T) {
		google := &stubFetcher{eventsByAccount: map[string][]calendar.Event{
			"g1": {event("Planning", base, calendar.SourceGoogle, "g1")},
		}}
		coordinator := newTestCoordinator(google, nil, nil)

		result := coordinator.SyncAll(ctx, []account.Calendar{
			{ID: "x1", Provider: "exchange", Enabled: true},
			{ID: "g1", Provider: account.ProviderGoogle, Enabled: true},
		}, nil)

		require.Len(t, result, 1)
		assert.Equal(t, "Planning", result[0].Title)
	})
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

	t.Run("routes to the provider fetcher", func(t *testing.T) {
		outlook := &stubFetcher{}
		coordinator := newTestCoordinator(nil, outlook, nil)

		created, err := coordinator.CreateEvent(ctx,
			account.Calendar{ID: "o1", Provider: account.ProviderOutlook, Enabled: true},
			event("Review", base, calendar.SourceOutlook, ""))

		require.NoError(t, err)
		assert.Equal(t, "o1", created.AccountID)
		assert.Len(t, outlook.created, 1)
	})

	t.Run("unsupported provider surfaces an error", func(t *testing.T) {
		coordinator := newTestCoordinator(nil, nil, nil)

		_, err := coordinator.CreateEvent(ctx,
			account.Calendar{ID: "x1", Provider: "exchange"},
			event("Review", base, calendar.SourceOutlook, ""))

		assert.ErrorIs(t, err, ErrUnsupportedProvider)
	})
}

func TestValidateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("reports true when a fetch succeeds", func(t *testing.T) {
		google := &stubFetcher{}
		coordinator := newTestCoordinator(google, nil, nil)

		valid := coordinator.ValidateAccount(ctx, account.Calendar{ID: "g1", Provider: account.ProviderGoogle})

		assert.True(t, valid)
	})

	t.Run("swallows the fetch error and reports false", func(t *testing.T) {
		google := &stubFetcher{err: errors.New("invalid credentials")}
		coordinator := newTestCoordinator(google, nil, nil)

		valid := coordinator.ValidateAccount(ctx, account.Calendar{ID: "g1", Provider: account.ProviderGoogle})

		assert.False(t, valid)
	})

	t.Run("unknown provider reports false", func(t *testing.T) {
		coordinator := newTestCoordinator(nil, nil, nil)

		assert.False(t, coordinator.ValidateAccount(ctx, account.Calendar{ID: "x1", Provider: "exchange"}))
	})
}
