package mailbox

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invitationICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:invite-1\r\n" +
	"DTSTAMP:20240301T120000Z\r\n" +
	"DTSTART:20240315T140000Z\r\n" +
	"DTEND:20240315T150000Z\r\n" +
	"SUMMARY:Quarterly Review\r\n" +
	"LOCATION:Boardroom\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func testMailbox() account.Mailbox {
	return account.Mailbox{
		ID:       "mbx-1",
		Email:    "user@example.com",
		Protocol: "imap",
		Host:     "imap.example.com",
		Port:     993,
		TLS:      true,
		Enabled:  true,
	}
}

func TestService_FetchEvents(t *testing.T) {
	t.Run("should decode calendar invitations attached to a mail", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Messages["mbx-1"] = []Message{
			{Subject: "Invitation: Quarterly Review", CalendarParts: [][]byte{[]byte(invitationICS)}},
		}
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "invite-1", events[0].ID)
		assert.Equal(t, "Quarterly Review", events[0].Title)
		assert.Equal(t, "Boardroom", events[0].Location)
		assert.True(t, events[0].Start.Equal(time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)))
		assert.Equal(t, calendar.SourceMail, events[0].Source)
		assert.Equal(t, "mbx-1", events[0].AccountID)
	})

	t.Run("should extract events from plain mails mentioning a meeting", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Messages["mbx-1"] = []Message{
			{Subject: "Team Meeting", TextBody: "Let's meet on January 15, 2024 at 2:00 PM in Conference Room A."},
		}
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Team Meeting", events[0].Title)
		assert.Equal(t, calendar.SourceMail, events[0].Source)
	})

	t.Run("should skip mails that do not look like events", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Messages["mbx-1"] = []Message{
			{Subject: "Your order shipped", TextBody: "Package 123 left the warehouse on 01/10/2024."},
		}
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("should skip likely-event mails without a parseable date", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Messages["mbx-1"] = []Message{
			{Subject: "Meeting soon", TextBody: "We should schedule a call sometime next week."},
		}
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("should skip malformed calendar parts without failing the mailbox", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Messages["mbx-1"] = []Message{
			{Subject: "Broken invite", CalendarParts: [][]byte{[]byte("not an ics file")}},
			{Subject: "Good invite", CalendarParts: [][]byte{[]byte(invitationICS)}},
		}
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Quarterly Review", events[0].Title)
	})

	t.Run("should propagate source errors", func(t *testing.T) {
		// given
		source := NewStubSource()
		source.Err = fmt.Errorf("connection refused")
		service := NewService(source)

		// when
		events, err := service.FetchEvents(context.Background(), testMailbox())

		// then
		assert.Error(t, err)
		assert.Nil(t, events)
	})
}

func TestParseMIMEBody(t *testing.T) {
	t.Run("should fall back to plain text for non-MIME content", func(t *testing.T) {
		// when
		text, parts := parseMIMEBody([]byte("just a plain body"))

		// then
		assert.Equal(t, "just a plain body", text)
		assert.Empty(t, parts)
	})
}
