package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/qepting91/saved-response/internal/domain"
)

// Credentials authenticate the app account against Reddit.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Settings are the per-installation defaults shown on every response form.
type Settings struct {
	PinResponse   bool
	LockResponse  bool
	EditResponse  bool
	PMAsSubreddit bool
	TitleKeywords string
}

type Config struct {
	Mode            string
	Credentials     Credentials
	Subreddit       string
	Moderator       string
	AppAccount      string
	Settings        Settings
	MockReasonsFile string
	JournalPath     string
	Port            string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Mode: envOr("HOST_MODE", "api"),
		Credentials: Credentials{
			ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			Username:     os.Getenv("REDDIT_USERNAME"),
			Password:     os.Getenv("REDDIT_PASSWORD"),
			UserAgent:    os.Getenv("REDDIT_USER_AGENT"),
		},
		Subreddit:       strings.TrimPrefix(os.Getenv("SUBREDDIT"), "r/"),
		Moderator:       strings.TrimPrefix(os.Getenv("MODERATOR"), "u/"),
		AppAccount:      os.Getenv("APP_ACCOUNT"),
		MockReasonsFile: os.Getenv("MOCK_REASONS_FILE"),
		JournalPath:     envOr("JOURNAL_PATH", "data/actions.json"),
		Port:            envOr("PORT", "8080"),
	}
	if cfg.AppAccount == "" {
		cfg.AppAccount = cfg.Credentials.Username
	}

	var err error
	if cfg.Settings.PinResponse, err = envBool("PIN_RESPONSE", true); err != nil {
		return nil, err
	}
	if cfg.Settings.LockResponse, err = envBool("LOCK_RESPONSE", true); err != nil {
		return nil, err
	}
	if cfg.Settings.EditResponse, err = envBool("EDIT_RESPONSE", false); err != nil {
		return nil, err
	}
	if cfg.Settings.PMAsSubreddit, err = envBool("PM_AS_SUBREDDIT", true); err != nil {
		return nil, err
	}
	cfg.Settings.TitleKeywords = os.Getenv("TITLE_KEYWORDS")

	return cfg, nil
}

// Session is the identity a CLI invocation acts under.
func (c *Config) Session() domain.Session {
	return domain.Session{
		Subreddit:  c.Subreddit,
		Moderator:  c.Moderator,
		AppAccount: c.AppAccount,
	}
}

// CommentDefaults are the preselected options of the comment form. Pin is
// only offered for posts.
func (s Settings) CommentDefaults(target domain.TargetRef) domain.DeliveryOptions {
	return domain.DeliveryOptions{
		AsComment: true,
		EditFirst: s.EditResponse,
		Pin:       target.IsPost() && s.PinResponse,
		Lock:      s.LockResponse,
	}
}

// MessageDefaults are the preselected options of the message form.
func (s Settings) MessageDefaults() domain.DeliveryOptions {
	return domain.DeliveryOptions{
		EditFirst:         s.EditResponse,
		SendAsInstitution: s.PMAsSubreddit,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
