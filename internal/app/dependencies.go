package app

import (
	"github.com/inboxcal/inboxcal/internal/config"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/caldav"
	"github.com/inboxcal/inboxcal/pkg/google"
	"github.com/inboxcal/inboxcal/pkg/mailbox"
	"github.com/inboxcal/inboxcal/pkg/outlook"
	"github.com/inboxcal/inboxcal/pkg/sync"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	AccountRepo    account.Repository
	AccountService account.Service
	AccountHandler *account.Handler

	GoogleFetcher  *google.Fetcher
	OutlookFetcher *outlook.Fetcher
	CalDAVFetcher  *caldav.Fetcher

	MailboxSource  mailbox.Source
	MailboxService *mailbox.Service

	SyncCoordinator sync.Coordinator
	SyncHandler     *sync.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.AccountRepo = account.NewRepository(db)
	deps.AccountService = account.NewService(deps.AccountRepo)
	deps.AccountHandler = account.NewHandler(deps.AccountService)

	deps.GoogleFetcher = google.NewFetcher(cfg.Google, cfg.Sync)
	deps.OutlookFetcher = outlook.NewFetcher(cfg.Sync)
	deps.CalDAVFetcher = caldav.NewFetcher(cfg.Sync)

	deps.MailboxSource = mailbox.NewIMAPSource(cfg.Sync)
	deps.MailboxService = mailbox.NewService(deps.MailboxSource)

	deps.SyncCoordinator = sync.NewCoordinator(deps.GoogleFetcher, deps.OutlookFetcher, deps.CalDAVFetcher, deps.MailboxService)
	deps.SyncHandler = sync.NewHandler(deps.SyncCoordinator, deps.AccountService)

	return deps
}
