package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/filter"
)

func newReasonsCmd(g *globalFlags) *cobra.Command {
	var keywords string
	var all bool

	cmd := &cobra.Command{
		Use:   "reasons",
		Short: "List the removal reasons usable as saved responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			if a.cfg.Subreddit == "" {
				return errors.New("subreddit is required (set SUBREDDIT or --subreddit)")
			}

			reasons, err := a.host.FetchRemovalReasons(cmd.Context(), a.cfg.Subreddit)
			if err != nil {
				return fmt.Errorf("fetch removal reasons: %w", err)
			}
			spec := a.cfg.Settings.TitleKeywords
			if cmd.Flags().Changed("keywords") {
				spec = keywords
			}
			if !all {
				reasons = filter.Reasons(reasons, spec)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE")
			for _, r := range reasons {
				fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma separated, case-sensitive title keywords (overrides TITLE_KEYWORDS)")
	cmd.Flags().BoolVar(&all, "all", false, "list every removal reason, ignoring keywords")
	return cmd
}

type responseFlags struct {
	reason string
	text   string
	edit   bool
}

func (f *responseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reason, "reason", "", "saved response id, title, or unique title fragment")
	cmd.Flags().StringVar(&f.text, "text", "", "send this text instead of a saved response")
	cmd.Flags().BoolVar(&f.edit, "edit", false, "edit the response before sending (default from EDIT_RESPONSE)")
}

func newCommentCmd(g *globalFlags) *cobra.Command {
	var rf responseFlags
	var pin, lock bool

	cmd := &cobra.Command{
		Use:   "comment <t1_id|t3_id>",
		Short: "Reply to a post or comment with a distinguished saved response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseTarget(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}

			opts := a.cfg.Settings.CommentDefaults(target)
			if cmd.Flags().Changed("pin") {
				opts.Pin = pin
			}
			if cmd.Flags().Changed("lock") {
				opts.Lock = lock
			}
			if cmd.Flags().Changed("edit") {
				opts.EditFirst = rf.edit
			}

			text, err := a.responseText(cmd.Context(), rf.text, rf.reason)
			if err != nil {
				return err
			}

			out := a.dispatcher().DispatchComment(cmd.Context(), a.cfg.Session(), target, text, opts)
			return report(cmd, out)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&pin, "pin", false, "pin the reply, posts only (default from PIN_RESPONSE)")
	cmd.Flags().BoolVar(&lock, "lock", false, "lock the reply (default from LOCK_RESPONSE)")
	return cmd
}

func newMessageCmd(g *globalFlags) *cobra.Command {
	var rf responseFlags
	var asSubreddit bool

	cmd := &cobra.Command{
		Use:   "message <t1_id|t3_id>",
		Short: "Send a saved response to the author of a post or comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseTarget(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}

			opts := a.cfg.Settings.MessageDefaults()
			if cmd.Flags().Changed("as-subreddit") {
				opts.SendAsInstitution = asSubreddit
			}
			if cmd.Flags().Changed("edit") {
				opts.EditFirst = rf.edit
			}

			text, err := a.responseText(cmd.Context(), rf.text, rf.reason)
			if err != nil {
				return err
			}

			out := a.dispatcher().DispatchMessage(cmd.Context(), a.cfg.Session(), target, text, opts)
			return report(cmd, out)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&asSubreddit, "as-subreddit", false, "send through modmail as the subreddit (default from PM_AS_SUBREDDIT)")
	return cmd
}

func newPostCmd(g *globalFlags) *cobra.Command {
	var title, body string
	var pin bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create a distinguished mod-team post as the app account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			out := a.dispatcher().CreateModPost(cmd.Context(), a.cfg.Session(), title, body, pin)
			return report(cmd, out)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&body, "body", "", "post body (markdown)")
	cmd.Flags().BoolVar(&pin, "pin", false, "pin the post to the community highlights")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}
