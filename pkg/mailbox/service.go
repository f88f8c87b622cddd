package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	"github.com/inboxcal/inboxcal/pkg/extractor"
	log "github.com/sirupsen/logrus"
)

// Service turns mailbox messages into calendar events. Calendar invitations
// attached to a mail are taken as-is; plain mails are run through the text
// extractor.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

func (s *Service) FetchEvents(ctx context.Context, acc account.Mailbox) ([]calendar.Event, error) {
	messages, err := s.source.FetchMessages(ctx, acc)
	if err != nil {
		log.Errorf("Failed to fetch messages for mailbox %s: %v", acc.Email, err)
		return nil, err
	}

	var events []calendar.Event
	for _, message := range messages {
		if len(message.CalendarParts) > 0 {
			for _, part := range message.CalendarParts {
				events = append(events, decodeInvitation(part, acc.ID)...)
			}
			continue
		}

		if !extractor.IsLikelyEvent(message.Subject, message.TextBody) {
			continue
		}
		if event := extractor.Extract(message.Subject, message.TextBody); event != nil {
			events = append(events, *event)
		}
	}
	return events, nil
}

// decodeInvitation parses a text/calendar MIME part and returns the VEVENTs
// it carries. Malformed parts are logged and skipped.
func decodeInvitation(part []byte, accountId string) []calendar.Event {
	var events []calendar.Event
	decoder := ical.NewDecoder(bytes.NewReader(part))
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("skipping malformed calendar part: %v", err)
			break
		}
		for _, child := range cal.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			event, err := invitationToEvent(child, accountId)
			if err != nil {
				log.Warnf("skipping invitation event: %v", err)
				continue
			}
			events = append(events, event)
		}
	}
	return events
}

func invitationToEvent(comp *ical.Component, accountId string) (calendar.Event, error) {
	event := calendar.Event{
		Title:     "Untitled",
		Source:    calendar.SourceMail,
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
		return calendar.Event{}, fmt.Errorf("invitation has no start time")
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
