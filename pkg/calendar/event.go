package calendar

import (
	"time"
)

// Source identifies which kind of origin produced an event record.
type Source string

const (
	SourceGoogle  Source = "google"
	SourceOutlook Source = "outlook"
	SourceCalDAV  Source = "caldav"
	SourceMail    Source = "mail"
)

// MailboxAccountID is the sentinel account id carried by events extracted
// from mail. Once merged, a mail-derived event is not tied to a specific
// mailbox record anymore.
const MailboxAccountID = "mail-parsed"

// Event is the provider-independent calendar event. IDs are unique per
// produced record but are not the dedup key; merging collapses records by
// (Title, Start instant) instead.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Source      Source    `json:"source"`
	AccountID   string    `json:"accountId"`
	Color       string    `json:"color,omitempty"`
}
