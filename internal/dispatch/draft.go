package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/qepting91/saved-response/internal/domain"
)

var (
	// ErrEditCancelled is returned by an Editor when the moderator backs out.
	ErrEditCancelled = errors.New("edit cancelled")
	ErrNoEditor      = errors.New("edit requested but no editor is configured")
	ErrEmptyResponse = errors.New("response text is empty")
)

// Mode is how a saved response is delivered
type Mode string

const (
	ModeComment Mode = "comment"
	ModeMessage Mode = "message"
	ModePost    Mode = "post"
)

// DraftState is the position of a draft in Drafted -> EditPending -> Committed.
type DraftState int

const (
	StateDrafted DraftState = iota
	StateEditPending
	StateCommitted
)

func (s DraftState) String() string {
	switch s {
	case StateDrafted:
		return "drafted"
	case StateEditPending:
		return "edit_pending"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Draft is a chosen response before it is delivered. Comment and message
// deliveries share it.
type Draft struct {
	Mode    Mode
	Target  domain.TargetRef
	Text    string
	Options domain.DeliveryOptions
	State   DraftState
}

// NewDraft applies target gating to opts, so a draft for a comment never
// carries Pin.
func NewDraft(mode Mode, target domain.TargetRef, text string, opts domain.DeliveryOptions) Draft {
	opts.AsComment = mode == ModeComment
	return Draft{
		Mode:    mode,
		Target:  target,
		Text:    text,
		Options: opts.ForTarget(target),
		State:   StateDrafted,
	}
}

// Editor lets the moderator revise a draft before it is committed. It may
// change Text and the carried-forward options; Mode and Target are fixed.
type Editor interface {
	Edit(ctx context.Context, d Draft) (Draft, error)
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(ctx context.Context, d Draft) (Draft, error)

func (f EditorFunc) Edit(ctx context.Context, d Draft) (Draft, error) { return f(ctx, d) }

// prepare walks a draft to StateCommitted, running the editor when EditFirst is set.
func (d *Dispatcher) prepare(ctx context.Context, draft Draft) (Draft, error) {
	if draft.Options.EditFirst {
		if d.editor == nil {
			return draft, ErrNoEditor
		}
		draft.State = StateEditPending
		edited, err := d.editor.Edit(ctx, draft)
		if err != nil {
			return draft, err
		}
		edited.Mode = draft.Mode
		edited.Target = draft.Target
		edited.Options.AsComment = draft.Options.AsComment
		edited.Options.EditFirst = true
		edited.Options = edited.Options.ForTarget(draft.Target)
		edited.State = StateEditPending
		draft = edited
	}

	if strings.TrimSpace(draft.Text) == "" {
		return draft, ErrEmptyResponse
	}
	draft.State = StateCommitted
	return draft, nil
}
