package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qepting91/saved-response/internal/domain"
)

// Status is the terminal result of one dispatch
type Status int

const (
	// StatusDelivered: the primary action and every follow-up step succeeded.
	StatusDelivered Status = iota
	// StatusDegraded: delivered, but at least one follow-up step failed.
	StatusDegraded
	// StatusFailed: nothing was delivered.
	StatusFailed
	// StatusRecipientUnreachable: the recipient refuses messages from the sender.
	StatusRecipientUnreachable
	// StatusCancelled: the moderator abandoned the draft while editing.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	case StatusRecipientUnreachable:
		return "recipient_unreachable"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Delivered reports whether the primary action reached the platform.
func (s Status) Delivered() bool {
	return s == StatusDelivered || s == StatusDegraded
}

// StepError is a follow-up step that failed after delivery.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e StepError) Unwrap() error { return e.Err }

// Outcome is what a dispatch reports back to the moderator.
type Outcome struct {
	ActionID       string
	Mode           Mode
	Status         Status
	Target         domain.TargetRef
	ReplyID        string
	ConversationID string
	PostID         string
	Recipient      string
	Err            error
	Degraded       []StepError
}

func (o *Outcome) degrade(step string, err error) {
	o.Degraded = append(o.Degraded, StepError{Step: step, Err: err})
}

func (o *Outcome) resolve() {
	switch {
	case o.Err == nil && len(o.Degraded) == 0:
		o.Status = StatusDelivered
	case o.Err == nil:
		o.Status = StatusDegraded
	case errors.Is(o.Err, ErrEditCancelled):
		o.Status = StatusCancelled
	case errors.Is(o.Err, domain.ErrRecipientUnreachable):
		o.Status = StatusRecipientUnreachable
	default:
		o.Status = StatusFailed
	}
}

func (o Outcome) degradedSteps() []string {
	var steps []string
	for _, d := range o.Degraded {
		steps = append(steps, d.Step)
	}
	return steps
}

// Notice is the one-line message shown to the moderator.
func (o Outcome) Notice() string {
	switch o.Status {
	case StatusCancelled:
		return "Saved response discarded."
	case StatusRecipientUnreachable:
		return fmt.Sprintf("Message not sent: u/%s does not accept messages from this account.", o.Recipient)
	case StatusFailed:
		switch o.Mode {
		case ModeComment:
			return fmt.Sprintf("Saved response was not posted: %v", o.Err)
		case ModePost:
			return fmt.Sprintf("Post was not created: %v", o.Err)
		default:
			return fmt.Sprintf("Message not sent: %v", o.Err)
		}
	}

	var base string
	switch o.Mode {
	case ModeComment:
		base = "Saved response posted as comment."
	case ModePost:
		base = "Post created successfully."
	default:
		base = "Saved response sent as PM."
	}
	if o.Status == StatusDegraded {
		base += " Follow-up steps failed: " + strings.Join(o.degradedSteps(), ", ") + "."
	}
	return base
}

// Record converts the outcome into a journal line.
func (o Outcome) Record(sess domain.Session, at time.Time) domain.ActionRecord {
	rec := domain.ActionRecord{
		ID:             o.ActionID,
		Time:           at.UTC(),
		Mode:           string(o.Mode),
		Subreddit:      sess.Subreddit,
		Moderator:      sess.Moderator,
		Target:         o.Target.FullName(),
		Status:         o.Status.String(),
		ReplyID:        o.ReplyID,
		ConversationID: o.ConversationID,
		Recipient:      o.Recipient,
		DegradedSteps:  o.degradedSteps(),
	}
	if o.PostID != "" {
		rec.Target = o.PostID
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}
