package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownTarget is returned when a fullname is neither a comment nor a post.
	ErrUnknownTarget = errors.New("unknown target kind")
	// ErrUnknownAuthor is returned when a target resolves to no author (deleted or missing).
	ErrUnknownAuthor = errors.New("target author could not be resolved")
	// ErrRecipientUnreachable marks a send rejected because the recipient
	// disabled messages from the sender.
	ErrRecipientUnreachable = errors.New("recipient has disabled messages from this sender")
)

// RemovalReason is a moderator-curated title/message pair
type RemovalReason struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// TargetKind tags what a TargetRef addresses
type TargetKind int

const (
	KindComment TargetKind = iota + 1
	KindPost
)

const (
	commentPrefix = "t1_"
	postPrefix    = "t3_"
)

// TargetRef addresses exactly one post or comment. The zero value is invalid.
type TargetRef struct {
	kind TargetKind
	id   string
}

func CommentTarget(id string) TargetRef { return TargetRef{kind: KindComment, id: id} }
func PostTarget(id string) TargetRef    { return TargetRef{kind: KindPost, id: id} }

// ParseTarget builds a TargetRef from a fullname such as "t1_abc" or "t3_xyz".
func ParseTarget(fullname string) (TargetRef, error) {
	fullname = strings.TrimSpace(fullname)
	switch {
	case strings.HasPrefix(fullname, commentPrefix) && len(fullname) > len(commentPrefix):
		return CommentTarget(fullname[len(commentPrefix):]), nil
	case strings.HasPrefix(fullname, postPrefix) && len(fullname) > len(postPrefix):
		return PostTarget(fullname[len(postPrefix):]), nil
	default:
		return TargetRef{}, fmt.Errorf("%w: %q", ErrUnknownTarget, fullname)
	}
}

func (t TargetRef) Kind() TargetKind { return t.kind }
func (t TargetRef) ID() string       { return t.id }
func (t TargetRef) IsPost() bool     { return t.kind == KindPost }
func (t TargetRef) Valid() bool      { return (t.kind == KindComment || t.kind == KindPost) && t.id != "" }

// FullName returns the prefixed identifier Reddit uses ("t1_abc").
func (t TargetRef) FullName() string {
	switch t.kind {
	case KindComment:
		return commentPrefix + t.id
	case KindPost:
		return postPrefix + t.id
	default:
		return ""
	}
}

// Noun is the human word for the target, used in message prefixes.
func (t TargetRef) Noun() string {
	if t.kind == KindPost {
		return "post"
	}
	return "comment"
}

func (t TargetRef) String() string { return t.FullName() }

// DeliveryOptions are the moderator's choices for one response
type DeliveryOptions struct {
	AsComment         bool `json:"as_comment"`
	EditFirst         bool `json:"edit_first"`
	Pin               bool `json:"pin"`
	Lock              bool `json:"lock"`
	SendAsInstitution bool `json:"send_as_institution"`
}

// ForTarget clears Pin when the target is a comment; replies to comments
// can be distinguished but never stickied.
func (o DeliveryOptions) ForTarget(t TargetRef) DeliveryOptions {
	if !t.IsPost() {
		o.Pin = false
	}
	return o
}

// Session carries the identity a moderator action runs under.
type Session struct {
	Subreddit  string
	Moderator  string
	AppAccount string
}

func (s Session) Validate() error {
	switch {
	case s.Subreddit == "":
		return errors.New("session: subreddit is required")
	case s.Moderator == "":
		return errors.New("session: acting moderator is required")
	case s.AppAccount == "":
		return errors.New("session: app account is required")
	}
	return nil
}

// TargetInfo is what the host knows about the post or comment being answered
type TargetInfo struct {
	Author    string
	Permalink string
}

// Message is an outgoing private or modmail message
type Message struct {
	Subject   string
	Body      string
	To        string
	Subreddit string
}

// AccountNote is a mod note attached to an account and linked to a thing
type AccountNote struct {
	Subreddit string
	User      string
	Note      string
	LinkedID  string
}

// ActionRecord is the journal line written for each dispatch
type ActionRecord struct {
	ID             string    `json:"id"`
	Time           time.Time `json:"time"`
	Mode           string    `json:"mode"`
	Subreddit      string    `json:"subreddit"`
	Moderator      string    `json:"moderator"`
	Target         string    `json:"target,omitempty"`
	Status         string    `json:"status"`
	ReplyID        string    `json:"reply_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Recipient      string    `json:"recipient,omitempty"`
	Error          string    `json:"error,omitempty"`
	DegradedSteps  []string  `json:"degraded_steps,omitempty"`
}
