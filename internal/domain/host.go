package domain

import "context"

// ReasonSource fetches a subreddit's removal reasons
type ReasonSource interface {
	FetchRemovalReasons(ctx context.Context, subreddit string) ([]RemovalReason, error)
}

// Responder covers the reply path: submit, distinguish, lock and mod notes.
type Responder interface {
	SubmitReply(ctx context.Context, target TargetRef, text string) (replyID string, err error)
	MarkDistinguished(ctx context.Context, thingID string, pin bool) error
	LockReply(ctx context.Context, thingID string) error
	AddAccountNote(ctx context.Context, note AccountNote) error
}

// Messenger covers author lookup, private messages and modmail.
type Messenger interface {
	LookupTarget(ctx context.Context, target TargetRef) (TargetInfo, error)
	SendInstitutionalMessage(ctx context.Context, msg Message) (conversationID string, err error)
	SendDirectMessage(ctx context.Context, msg Message) error
	PostInternalNote(ctx context.Context, conversationID, text string) error
	ArchiveConversation(ctx context.Context, conversationID string) error
}

// Poster creates subreddit-level posts
type Poster interface {
	SubmitPost(ctx context.Context, subreddit, title, body string) (postID string, err error)
	StickyPost(ctx context.Context, postID string) error
}

// Host is everything the dispatcher needs from the platform
type Host interface {
	ReasonSource
	Responder
	Messenger
	Poster
}
