// Package dispatch delivers a chosen saved response either as a
// distinguished reply or as a message to the original author, and does the
// bookkeeping that follows (mod notes, pin, lock, modmail archive).
//
// Every host call is awaited in order; a dispatch never retries and never
// returns an error, only an Outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/metrics"
)

// Recorder receives one record per finished dispatch.
type Recorder interface {
	Record(rec domain.ActionRecord) error
}

type Dispatcher struct {
	host     domain.Host
	editor   Editor
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithEditor(e Editor) Option       { return func(d *Dispatcher) { d.editor = e } }
func WithRecorder(r Recorder) Option   { return func(d *Dispatcher) { d.recorder = r } }
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

func New(host domain.Host, opts ...Option) *Dispatcher {
	d := &Dispatcher{host: host, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// begin opens an outcome and validates what every mode needs.
func (d *Dispatcher) begin(mode Mode, sess domain.Session, target domain.TargetRef) (Outcome, error) {
	out := Outcome{ActionID: uuid.NewString(), Mode: mode, Target: target}
	if err := sess.Validate(); err != nil {
		return out, err
	}
	if mode != ModePost && !target.Valid() {
		return out, fmt.Errorf("%w: %q", domain.ErrUnknownTarget, target.FullName())
	}
	return out, nil
}

// step runs a follow-up call; a failure degrades the outcome but never aborts it.
func (d *Dispatcher) step(ctx context.Context, out *Outcome, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		out.degrade(name, err)
		metrics.StepFailures.WithLabelValues(name).Inc()
		d.logger.Warn("Follow-up step failed", "action", out.ActionID, "mode", out.Mode, "step", name, "err", err)
	}
}

func (d *Dispatcher) finish(sess domain.Session, out Outcome, started time.Time) Outcome {
	out.resolve()

	elapsed := d.now().Sub(started)
	metrics.DispatchTotal.WithLabelValues(string(out.Mode), out.Status.String()).Inc()
	metrics.DispatchDuration.WithLabelValues(string(out.Mode)).Observe(elapsed.Seconds())

	attrs := []any{
		"action", out.ActionID,
		"mode", out.Mode,
		"target", out.Target.FullName(),
		"status", out.Status.String(),
		"moderator", sess.Moderator,
	}
	switch out.Status {
	case StatusFailed:
		d.logger.Error("Dispatch failed", append(attrs, "err", out.Err)...)
	case StatusRecipientUnreachable, StatusCancelled:
		d.logger.Info("Dispatch not delivered", append(attrs, "err", out.Err)...)
	default:
		d.logger.Info("Dispatch complete", append(attrs, "degraded", len(out.Degraded))...)
	}

	if d.recorder != nil {
		if err := d.recorder.Record(out.Record(sess, d.now())); err != nil {
			d.logger.Warn("Journal write failed", "action", out.ActionID, "err", err)
		}
	}
	return out
}

// DispatchComment posts text as a distinguished reply to target, then pins,
// locks and notes it as opts ask.
func (d *Dispatcher) DispatchComment(ctx context.Context, sess domain.Session, target domain.TargetRef, text string, opts domain.DeliveryOptions) Outcome {
	started := d.now()
	out, err := d.begin(ModeComment, sess, target)
	if err != nil {
		out.Err = err
		return d.finish(sess, out, started)
	}

	draft, err := d.prepare(ctx, NewDraft(ModeComment, target, text, opts))
	if err != nil {
		out.Err = err
		return d.finish(sess, out, started)
	}

	replyID, err := d.host.SubmitReply(ctx, target, draft.Text)
	if err != nil {
		out.Err = fmt.Errorf("submit reply: %w", err)
		return d.finish(sess, out, started)
	}
	out.ReplyID = replyID

	d.step(ctx, &out, "distinguish", func(ctx context.Context) error {
		return d.host.MarkDistinguished(ctx, replyID, draft.Options.Pin)
	})
	if draft.Options.Lock {
		d.step(ctx, &out, "lock", func(ctx context.Context) error {
			return d.host.LockReply(ctx, replyID)
		})
	}
	d.step(ctx, &out, "note", func(ctx context.Context) error {
		return d.host.AddAccountNote(ctx, domain.AccountNote{
			Subreddit: sess.Subreddit,
			User:      sess.AppAccount,
			Note:      commentNote(sess.Moderator),
			LinkedID:  replyID,
		})
	})

	return d.finish(sess, out, started)
}

// DispatchMessage sends text to the author of target, either through
// modmail as the subreddit or as a direct message from the app account.
func (d *Dispatcher) DispatchMessage(ctx context.Context, sess domain.Session, target domain.TargetRef, text string, opts domain.DeliveryOptions) Outcome {
	started := d.now()
	out, err := d.begin(ModeMessage, sess, target)
	if err != nil {
		out.Err = err
		return d.finish(sess, out, started)
	}

	draft, err := d.prepare(ctx, NewDraft(ModeMessage, target, text, opts))
	if err != nil {
		out.Err = err
		return d.finish(sess, out, started)
	}

	info, err := d.host.LookupTarget(ctx, target)
	if err != nil {
		out.Err = fmt.Errorf("lookup %s: %w", target, err)
		return d.finish(sess, out, started)
	}
	if info.Author == "" {
		out.Err = fmt.Errorf("lookup %s: %w", target, domain.ErrUnknownAuthor)
		return d.finish(sess, out, started)
	}
	out.Recipient = info.Author

	msg := domain.Message{
		Subject:   messageSubject(sess.Subreddit),
		Body:      messagePrefix(target, info.Permalink) + draft.Text,
		To:        info.Author,
		Subreddit: sess.Subreddit,
	}

	if draft.Options.SendAsInstitution {
		d.sendModmail(ctx, sess, &out, msg)
	} else {
		d.sendDirect(ctx, sess, &out, msg)
	}
	return d.finish(sess, out, started)
}

func (d *Dispatcher) sendModmail(ctx context.Context, sess domain.Session, out *Outcome, msg domain.Message) {
	convID, err := d.host.SendInstitutionalMessage(ctx, msg)
	if err != nil {
		out.Err = fmt.Errorf("send modmail to u/%s: %w", msg.To, err)
		return
	}
	out.ConversationID = convID

	d.step(ctx, out, "internal_note", func(ctx context.Context) error {
		return d.host.PostInternalNote(ctx, convID, internalNote(sess.Moderator))
	})

	// Conversations with another moderator cannot be archived.
	if err := d.host.ArchiveConversation(ctx, convID); err != nil {
		d.logger.Debug("Archive skipped", "action", out.ActionID, "conversation", convID, "err", err)
	}
}

func (d *Dispatcher) sendDirect(ctx context.Context, sess domain.Session, out *Outcome, msg domain.Message) {
	msg.Body += unmonitoredFooter(sess.Subreddit)
	if err := d.host.SendDirectMessage(ctx, msg); err != nil {
		out.Err = fmt.Errorf("send message to u/%s: %w", msg.To, err)
		return
	}

	d.step(ctx, out, "note", func(ctx context.Context) error {
		return d.host.AddAccountNote(ctx, domain.AccountNote{
			Subreddit: sess.Subreddit,
			User:      sess.AppAccount,
			Note:      messageNote(msg.To, sess.Moderator),
			LinkedID:  out.Target.FullName(),
		})
	})
}

// CreateModPost submits a distinguished self post as the app account,
// stickied when pin is set.
func (d *Dispatcher) CreateModPost(ctx context.Context, sess domain.Session, title, body string, pin bool) Outcome {
	started := d.now()
	out, err := d.begin(ModePost, sess, domain.TargetRef{})
	if err != nil {
		out.Err = err
		return d.finish(sess, out, started)
	}
	if title == "" || body == "" {
		out.Err = fmt.Errorf("post title and body are required: %w", ErrEmptyResponse)
		return d.finish(sess, out, started)
	}

	postID, err := d.host.SubmitPost(ctx, sess.Subreddit, title, body)
	if err != nil {
		out.Err = fmt.Errorf("submit post: %w", err)
		return d.finish(sess, out, started)
	}
	out.PostID = postID

	d.step(ctx, &out, "distinguish", func(ctx context.Context) error {
		return d.host.MarkDistinguished(ctx, postID, false)
	})
	if pin {
		d.step(ctx, &out, "sticky", func(ctx context.Context) error {
			return d.host.StickyPost(ctx, postID)
		})
	}
	return d.finish(sess, out, started)
}
