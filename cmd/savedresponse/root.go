package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/qepting91/saved-response/internal/config"
	"github.com/qepting91/saved-response/internal/dispatch"
	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/editor"
	"github.com/qepting91/saved-response/internal/filter"
	"github.com/qepting91/saved-response/internal/host"
	"github.com/qepting91/saved-response/internal/storage"
)

type globalFlags struct {
	subreddit      string
	moderator      string
	nonInteractive bool
	debug          bool
}

// NewRootCmd builds a fresh command tree so tests do not share flag state.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "savedresponse",
		Short: "Leave a subreddit's removal reasons as saved responses",
		Long: `savedresponse lets a moderator pick one of the subreddit's removal reasons
and leave it as a distinguished reply or send it to the author as a message.

Examples:
  savedresponse reasons                        # List usable saved responses
  savedresponse comment t3_xyz --reason "Rule 1"  # Reply to a post, pinned and locked by default
  savedresponse message t1_abc --edit          # Edit, then message the comment's author
  savedresponse post --title "Weekly thread" --body "..." --pin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&g.subreddit, "subreddit", "", "subreddit to act in (overrides SUBREDDIT)")
	cmd.PersistentFlags().StringVar(&g.moderator, "moderator", "", "acting moderator username (overrides MODERATOR)")
	cmd.PersistentFlags().BoolVar(&g.nonInteractive, "non-interactive", false, "never open the picker or editor")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newReasonsCmd(g))
	cmd.AddCommand(newCommentCmd(g))
	cmd.AddCommand(newMessageCmd(g))
	cmd.AddCommand(newPostCmd(g))
	cmd.AddCommand(newDashboardCmd(g))
	return cmd
}

// app is everything one invocation needs, built from config and flags.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	host        domain.Host
	term        editor.Terminal
	interactive bool
}

func newApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.subreddit != "" {
		cfg.Subreddit = strings.TrimPrefix(g.subreddit, "r/")
	}
	if g.moderator != "" {
		cfg.Moderator = strings.TrimPrefix(g.moderator, "u/")
	}

	logger := newLogger(cmd, g)

	h, err := host.NewHost(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}
	logger.Debug("Host initialized", "mode", cfg.Mode, "subreddit", cfg.Subreddit)

	return &app{
		cfg:         cfg,
		logger:      logger,
		host:        h,
		term:        editor.Terminal{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
		interactive: !g.nonInteractive && isTerminal(),
	}, nil
}

// newLogger logs JSON to stderr so stdout stays free for command output.
func newLogger(cmd *cobra.Command, g *globalFlags) *slog.Logger {
	level := slog.LevelInfo
	if g.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (a *app) dispatcher() *dispatch.Dispatcher {
	opts := []dispatch.Option{
		dispatch.WithLogger(a.logger),
		dispatch.WithRecorder(&storage.Journal{FilePath: a.cfg.JournalPath}),
	}
	if a.interactive {
		opts = append(opts, dispatch.WithEditor(a.term))
	}
	return dispatch.New(a.host, opts...)
}

// responseText resolves what to send: literal text, a reason matched by id
// or title, or an interactive pick from the filtered reasons.
func (a *app) responseText(ctx context.Context, text, reason string) (string, error) {
	if text != "" {
		return text, nil
	}

	all, err := a.host.FetchRemovalReasons(ctx, a.cfg.Subreddit)
	if err != nil {
		return "", fmt.Errorf("fetch removal reasons: %w", err)
	}
	reasons := filter.Reasons(all, a.cfg.Settings.TitleKeywords)

	if reason != "" {
		r, err := selectReason(reasons, reason)
		if err != nil {
			return "", err
		}
		return r.Message, nil
	}
	if !a.interactive {
		return "", fmt.Errorf("--reason or --text is required when not running in a terminal")
	}
	r, err := a.term.Pick(ctx, reasons)
	if err != nil {
		return "", err
	}
	return r.Message, nil
}

// selectReason finds a reason by exact id, then exact title, then a unique
// title substring.
func selectReason(reasons []domain.RemovalReason, ref string) (domain.RemovalReason, error) {
	for _, r := range reasons {
		if r.ID == ref {
			return r, nil
		}
	}
	for _, r := range reasons {
		if r.Title == ref {
			return r, nil
		}
	}
	var matches []domain.RemovalReason
	for _, r := range reasons {
		if strings.Contains(r.Title, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return domain.RemovalReason{}, fmt.Errorf("no saved response matches %q", ref)
	default:
		return domain.RemovalReason{}, fmt.Errorf("%q matches %d saved responses; use the id", ref, len(matches))
	}
}

// report prints the outcome and turns undelivered outcomes into a non-zero exit.
func report(cmd *cobra.Command, out dispatch.Outcome) error {
	fmt.Fprintln(cmd.OutOrStdout(), out.Notice())
	if out.Status.Delivered() || out.Status == dispatch.StatusCancelled {
		return nil
	}
	return fmt.Errorf("%s: %s", out.Mode, out.Status)
}
