package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/inboxcal/inboxcal/internal/config"
	"github.com/inboxcal/inboxcal/pkg/account"
	log "github.com/sirupsen/logrus"
)

// Message is one mail fetched from a mailbox, reduced to the parts event
// detection needs.
type Message struct {
	Subject       string
	TextBody      string
	CalendarParts [][]byte
}

// Source fetches recent messages from a mailbox account.
type Source interface {
	FetchMessages(ctx context.Context, acc account.Mailbox) ([]Message, error)
}

// IMAPSource reads messages over IMAP. A fresh connection is made per fetch
// because every account carries its own host and credentials.
type IMAPSource struct {
	sinceDays  int
	fetchLimit int
}

func NewIMAPSource(syncCfg config.Sync) *IMAPSource {
	return &IMAPSource{
		sinceDays:  syncCfg.MailSinceDays,
		fetchLimit: syncCfg.MailFetchLimit,
	}
}

func (s *IMAPSource) connect(acc account.Mailbox) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", acc.Host, acc.Port)

	var client *imapclient.Client
	var err error
	if acc.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(acc.Username, acc.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", acc.Username, err)
	}
	return client, nil
}

func (s *IMAPSource) FetchMessages(ctx context.Context, acc account.Mailbox) ([]Message, error) {
	client, err := s.connect(acc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		Since: time.Now().AddDate(0, 0, -s.sinceDays),
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if s.fetchLimit > 0 && len(uids) > s.fetchLimit {
		uids = uids[len(uids)-s.fetchLimit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var messages []Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			log.Warnf("failed to collect message from %s: %v", acc.Email, err)
			continue
		}

		message := Message{}
		if buf.Envelope != nil {
			message.Subject = buf.Envelope.Subject
		}
		if rawBody := buf.FindBodySection(bodySection); rawBody != nil {
			message.TextBody, message.CalendarParts = parseMIMEBody(rawBody)
		}
		messages = append(messages, message)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}

// parseMIMEBody walks the MIME tree and extracts the text/plain body plus any
// text/calendar parts, inline or attached.
func parseMIMEBody(raw []byte) (textBody string, calendarParts [][]byte) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not MIME, treat the whole body as plain text.
		return string(raw), nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/calendar"):
				calendarParts = append(calendarParts, body)
			}

		case *mail.AttachmentHeader:
			contentType, _, _ := h.ContentType()
			filename, _ := h.Filename()
			if !strings.HasPrefix(contentType, "text/calendar") && !strings.HasSuffix(filename, ".ics") {
				continue
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			calendarParts = append(calendarParts, body)
		}
	}

	return textBody, calendarParts
}
