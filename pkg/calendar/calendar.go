package calendar

import (
	"context"

	"github.com/inboxcal/inboxcal/pkg/account"
)

// EventFetcher is implemented once per calendar provider. FetchEvents must
// return an error (not panic) on transport or auth failure so the sync
// coordinator can contain it per account.
type EventFetcher interface {
	FetchEvents(ctx context.Context, acc account.Calendar) ([]Event, error)
	CreateEvent(ctx context.Context, acc account.Calendar, event Event) (*Event, error)
}

// MailboxFetcher retrieves raw messages from a mailbox and turns the ones
// that describe an event into Event records.
type MailboxFetcher interface {
	FetchEvents(ctx context.Context, acc account.Mailbox) ([]Event, error)
}
