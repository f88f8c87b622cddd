package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// ErrUnsupportedProvider indicates a configuration defect: an account
// carries a provider tag with no registered fetcher.
var ErrUnsupportedProvider = errors.New("unsupported calendar provider")

type Coordinator interface {
	SyncAll(ctx context.Context, calendars []account.Calendar, mailboxes []account.Mailbox) []calendar.Event
	CreateEvent(ctx context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error)
	ValidateAccount(ctx context.Context, acc account.Calendar) bool
}

type CoordinatorImpl struct {
	google  calendar.EventFetcher
	outlook calendar.EventFetcher
	caldav  calendar.EventFetcher
	mail    calendar.MailboxFetcher
}

func NewCoordinator(google, outlook, caldav calendar.EventFetcher, mail calendar.MailboxFetcher) *CoordinatorImpl {
	return &CoordinatorImpl{
		google:  google,
		outlook: outlook,
		caldav:  caldav,
		mail:    mail,
	}
}

func (c *CoordinatorImpl) fetcherFor(acc account.Calendar) (calendar.EventFetcher, error) {
	switch acc.Provider {
	case account.ProviderGoogle:
		return c.google, nil
	case account.ProviderOutlook:
		return c.outlook, nil
	case account.ProviderCalDAV:
		return c.caldav, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, acc.Provider)
}

// SyncAll fetches every enabled account concurrently and merges the results
// into one deduplicated, chronologically ordered list. A failing account is
// logged and contributes nothing; it never aborts the other accounts or the
// merge. The returned list is therefore always valid, possibly partial.
func (c *CoordinatorImpl) SyncAll(ctx context.Context, calendars []account.Calendar, mailboxes []account.Mailbox) []calendar.Event {
	enabledCalendars := enabledCalendarsOf(calendars)
	enabledMailboxes := enabledMailboxesOf(mailboxes)

	// One slot per account; every goroutine writes only its own slot, so the
	// slices need no locking and concatenation order stays deterministic.
	calendarResults := make([][]calendar.Event, len(enabledCalendars))
	mailResults := make([][]calendar.Event, len(enabledMailboxes))

	var wg sync.WaitGroup
	for i, acc := range enabledCalendars {
		wg.Add(1)
		go func(i int, acc account.Calendar) {
			defer wg.Done()
			fetcher, err := c.fetcherFor(acc)
			if err != nil {
				log.Warnf("skipping calendar account %s (%s): %v", acc.ID, acc.Email, err)
				return
			}
			events, err := fetcher.FetchEvents(ctx, acc)
			if err != nil {
				log.Errorf("failed to sync %s account %s: %v", acc.Provider, acc.Email, err)
				return
			}
			calendarResults[i] = events
		}(i, acc)
	}
	for i, acc := range enabledMailboxes {
		wg.Add(1)
		go func(i int, acc account.Mailbox) {
			defer wg.Done()
			events, err := c.mail.FetchEvents(ctx, acc)
			if err != nil {
				log.Errorf("failed to sync mailbox %s: %v", acc.Email, err)
				return
			}
			mailResults[i] = events
		}(i, acc)
	}
	wg.Wait()

	var all []calendar.Event
	for _, events := range calendarResults {
		all = append(all, events...)
	}
	for _, events := range mailResults {
		all = append(all, events...)
	}

	merged := dedupe(all)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})

	log.Debugf("sync pass merged %d events from %d calendar and %d mailbox accounts",
		len(merged), len(enabledCalendars), len(enabledMailboxes))
	return merged
}

// CreateEvent routes to the provider-specific create call. Mailboxes cannot
// originate a remote create, so only calendar accounts are accepted.
func (c *CoordinatorImpl) CreateEvent(ctx context.Context, acc account.Calendar, event calendar.Event) (*calendar.Event, error) {
	fetcher, err := c.fetcherFor(acc)
	if err != nil {
		return nil, err
	}
	return fetcher.CreateEvent(ctx, acc, event)
}

// ValidateAccount performs a lightweight fetch and reports success only.
// The underlying error, if any, is logged and swallowed.
func (c *CoordinatorImpl) ValidateAccount(ctx context.Context, acc account.Calendar) bool {
	fetcher, err := c.fetcherFor(acc)
	if err != nil {
		log.Warnf("cannot validate account %s: %v", acc.ID, err)
		return false
	}
	if _, err := fetcher.FetchEvents(ctx, acc); err != nil {
		log.Infof("validation failed for %s account %s: %v", acc.Provider, acc.Email, err)
		return false
	}
	return true
}

func enabledCalendarsOf(accounts []account.Calendar) []account.Calendar {
	var enabled []account.Calendar
	for _, acc := range accounts {
		if acc.Enabled {
			enabled = append(enabled, acc)
		}
	}
	return enabled
}

func enabledMailboxesOf(accounts []account.Mailbox) []account.Mailbox {
	var enabled []account.Mailbox
	for _, acc := range accounts {
		if acc.Enabled {
			enabled = append(enabled, acc)
		}
	}
	return enabled
}

type dedupKey struct {
	title   string
	startMs int64
}

// dedupe keeps the first event seen for every (title, start instant) pair.
// The key deliberately ignores source and account so the same event
// mirrored across providers collapses into one record.
func dedupe(events []calendar.Event) []calendar.Event {
	seen := make(map[dedupKey]struct{}, len(events))
	result := make([]calendar.Event, 0, len(events))
	for _, event := range events {
		key := dedupKey{title: event.Title, startMs: event.Start.UnixMilli()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, event)
	}
	return result
}
