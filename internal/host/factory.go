package host

import (
	"fmt"

	"github.com/qepting91/saved-response/internal/config"
	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/ingest"
)

// NewHost selects the correct implementation based on the MODE
func NewHost(cfg *config.Config) (domain.Host, error) {
	switch cfg.Mode {
	case "api":
		creds := cfg.Credentials
		if creds.ClientID == "" || creds.ClientSecret == "" || creds.Username == "" || creds.Password == "" {
			return nil, fmt.Errorf("REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and REDDIT_PASSWORD are required for api mode")
		}
		if creds.UserAgent == "" {
			return nil, fmt.Errorf("REDDIT_USER_AGENT is required for api mode")
		}
		return NewAPIClient(creds)
	case "mock":
		reasons := DefaultMockReasons()
		if cfg.MockReasonsFile != "" {
			loaded, err := ingest.LoadReasons(cfg.MockReasonsFile)
			if err != nil {
				return nil, fmt.Errorf("load mock reasons: %w", err)
			}
			reasons = loaded
		}
		return NewMockClient(reasons), nil
	default:
		return nil, fmt.Errorf("unknown HOST_MODE: %s (use 'api' or 'mock')", cfg.Mode)
	}
}

// DefaultMockReasons seeds the mock host when no reasons file is given.
func DefaultMockReasons() []domain.RemovalReason {
	return []domain.RemovalReason{
		{ID: "mock-1", Title: "Rule 1: Spam", Message: "Your submission was removed because it is spam."},
		{ID: "mock-2", Title: "Off-topic", Message: "Please keep submissions on topic for this community."},
		{ID: "mock-3", Title: "Rule 2: Harassment", Message: "Harassment of other users is not allowed."},
		{ID: "mock-4", Title: "[Warning] Civility", Message: "This is a friendly reminder to keep discussion civil."},
	}
}
