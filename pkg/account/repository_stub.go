package account

import (
	"context"
)

type StubRepository struct {
	Calendars []Calendar
	Mailboxes []Mailbox
}

func (s *StubRepository) StoreCalendar(ctx context.Context, acc Calendar) error {
	s.Calendars = append(s.Calendars, acc)
	return nil
}

func (s *StubRepository) GetCalendar(ctx context.Context, id string) (Calendar, error) {
	for _, acc := range s.Calendars {
		if acc.ID == id {
			return acc, nil
		}
	}
	return Calendar{}, ErrAccountNotFound
}

func (s *StubRepository) GetAllCalendars(ctx context.Context) ([]Calendar, error) {
	return s.Calendars, nil
}

func (s *StubRepository) SetCalendarEnabled(ctx context.Context, id string, enabled bool) error {
	for i := range s.Calendars {
		if s.Calendars[i].ID == id {
			s.Calendars[i].Enabled = enabled
			return nil
		}
	}
	return ErrAccountNotFound
}

func (s *StubRepository) DeleteCalendar(ctx context.Context, id string) error {
	for i := range s.Calendars {
		if s.Calendars[i].ID == id {
			s.Calendars = append(s.Calendars[:i], s.Calendars[i+1:]...)
			return nil
		}
	}
	return ErrAccountNotFound
}

func (s *StubRepository) StoreMailbox(ctx context.Context, acc Mailbox) error {
	s.Mailboxes = append(s.Mailboxes, acc)
	return nil
}

func (s *StubRepository) GetAllMailboxes(ctx context.Context) ([]Mailbox, error) {
	return s.Mailboxes, nil
}

func (s *StubRepository) SetMailboxEnabled(ctx context.Context, id string, enabled bool) error {
	for i := range s.Mailboxes {
		if s.Mailboxes[i].ID == id {
			s.Mailboxes[i].Enabled = enabled
			return nil
		}
	}
	return ErrAccountNotFound
}

func (s *StubRepository) DeleteMailbox(ctx context.Context, id string) error {
	for i := range s.Mailboxes {
		if s.Mailboxes[i].ID == id {
			s.Mailboxes = append(s.Mailboxes[:i], s.Mailboxes[i+1:]...)
			return nil
		}
	}
	return ErrAccountNotFound
}
