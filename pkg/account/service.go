package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrUnknownProvider = fmt.Errorf("unknown calendar provider")

type Service interface {
	AddCalendar(ctx context.Context, acc Calendar) (Calendar, error)
	GetCalendar(ctx context.Context, id string) (Calendar, error)
	ListCalendars(ctx context.Context) ([]Calendar, error)
	SetCalendarEnabled(ctx context.Context, id string, enabled bool) error
	DeleteCalendar(ctx context.Context, id string) error

	AddMailbox(ctx context.Context, acc Mailbox) (Mailbox, error)
	ListMailboxes(ctx context.Context) ([]Mailbox, error)
	SetMailboxEnabled(ctx context.Context, id string, enabled bool) error
	DeleteMailbox(ctx context.Context, id string) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) AddCalendar(ctx context.Context, acc Calendar) (Calendar, error) {
	switch acc.Provider {
	case ProviderGoogle, ProviderOutlook, ProviderCalDAV:
	default:
		return Calendar{}, fmt.Errorf("%w: %q", ErrUnknownProvider, acc.Provider)
	}

	acc.ID = uuid.NewString()
	if err := s.repo.StoreCalendar(ctx, acc); err != nil {
		return Calendar{}, fmt.Errorf("failed to store calendar account: %w", err)
	}
	log.Infof("Registered %s calendar account %s", acc.Provider, acc.Email)
	return acc, nil
}

func (s *ServiceImpl) GetCalendar(ctx context.Context, id string) (Calendar, error) {
	return s.repo.GetCalendar(ctx, id)
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]Calendar, error) {
	return s.repo.GetAllCalendars(ctx)
}

func (s *ServiceImpl) SetCalendarEnabled(ctx context.Context, id string, enabled bool) error {
	return s.repo.SetCalendarEnabled(ctx, id, enabled)
}

func (s *ServiceImpl) DeleteCalendar(ctx context.Context, id string) error {
	return s.repo.DeleteCalendar(ctx, id)
}

func (s *ServiceImpl) AddMailbox(ctx context.Context, acc Mailbox) (Mailbox, error) {
	if acc.Protocol == "" {
		acc.Protocol = "imap"
	}
	acc.ID = uuid.NewString()
	if err := s.repo.StoreMailbox(ctx, acc); err != nil {
		return Mailbox{}, fmt.Errorf("failed to store mailbox account: %w", err)
	}
	log.Infof("Registered mailbox account %s", acc.Email)
	return acc, nil
}

func (s *ServiceImpl) ListMailboxes(ctx context.Context) ([]Mailbox, error) {
	return s.repo.GetAllMailboxes(ctx)
}

func (s *ServiceImpl) SetMailboxEnabled(ctx context.Context, id string, enabled bool) error {
	return s.repo.SetMailboxEnabled(ctx, id, enabled)
}

func (s *ServiceImpl) DeleteMailbox(ctx context.Context, id string) error {
	return s.repo.DeleteMailbox(ctx, id)
}
