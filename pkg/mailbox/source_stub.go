package mailbox

import (
	"context"

	"github.com/inboxcal/inboxcal/pkg/account"
)

// StubSource is an in-memory Source for tests and local development.
type StubSource struct {
	Messages map[string][]Message
	Err      error
}

func NewStubSource() *StubSource {
	return &StubSource{Messages: map[string][]Message{}}
}

func (s *StubSource) FetchMessages(_ context.Context, acc account.Mailbox) ([]Message, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Messages[acc.ID], nil
}
