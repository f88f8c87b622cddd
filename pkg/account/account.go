package account

// Provider tags a calendar account with the remote API it belongs to. The
// set is closed; routing switches over it and treats anything else as a
// configuration defect.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderOutlook Provider = "outlook"
	ProviderCalDAV  Provider = "caldav"
)

// Calendar describes one remote calendar account. Credentials are opaque
// to everything but the provider-specific fetcher.
type Calendar struct {
	ID          string
	Provider    Provider
	Email       string
	DisplayName string

	// OAuth providers (google, outlook)
	AccessToken  string
	RefreshToken string

	// CalDAV
	ServerURL string
	Username  string
	Password  string

	Enabled bool
}

// Mailbox describes one mail account scanned for event content.
type Mailbox struct {
	ID       string
	Email    string
	Protocol string
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	Enabled  bool
}
