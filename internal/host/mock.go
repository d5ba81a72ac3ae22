package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qepting91/saved-response/internal/domain"
)

// Operation names recorded by MockClient.
const (
	OpFetchReasons = "fetch_removal_reasons"
	OpSubmitReply  = "submit_reply"
	OpDistinguish  = "distinguish"
	OpLock         = "lock"
	OpAccountNote  = "account_note"
	OpLookup       = "lookup_target"
	OpModmail      = "send_modmail"
	OpDirect       = "send_direct"
	OpInternalNote = "internal_note"
	OpArchive      = "archive"
	OpSubmitPost   = "submit_post"
	OpSticky       = "sticky"
)

// Call is one recorded host invocation
type Call struct {
	Op   string
	Args []string
}

// MockClient implements domain.Host in memory and records every call in order.
type MockClient struct {
	// Latency simulates a round trip per call (nice for exercising cancellation)
	Latency time.Duration

	mu       sync.Mutex
	reasons  []domain.RemovalReason
	targets  map[string]domain.TargetInfo
	blocked  map[string]bool
	failures map[string]error
	calls    []Call
	notes    []domain.AccountNote
	messages []domain.Message
	seq      int
}

func NewMockClient(reasons []domain.RemovalReason) *MockClient {
	return &MockClient{
		reasons:  reasons,
		targets:  make(map[string]domain.TargetInfo),
		blocked:  make(map[string]bool),
		failures: make(map[string]error),
	}
}

// AddTarget registers what LookupTarget returns for fullname.
func (mc *MockClient) AddTarget(fullname string, info domain.TargetInfo) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.targets[fullname] = info
}

// Block makes every message to user fail as recipient-unreachable.
func (mc *MockClient) Block(user string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.blocked[user] = true
}

// FailOn makes op return err.
func (mc *MockClient) FailOn(op string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.failures[op] = err
}

func (mc *MockClient) Calls() []Call {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return append([]Call(nil), mc.calls...)
}

// Ops returns the recorded operation names in call order.
func (mc *MockClient) Ops() []string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	ops := make([]string, 0, len(mc.calls))
	for _, c := range mc.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

func (mc *MockClient) Notes() []domain.AccountNote {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return append([]domain.AccountNote(nil), mc.notes...)
}

func (mc *MockClient) Messages() []domain.Message {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return append([]domain.Message(nil), mc.messages...)
}

// record logs the call and returns the injected failure for op, if any.
func (mc *MockClient) record(ctx context.Context, op string, args ...string) error {
	if mc.Latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mc.Latency):
		}
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.calls = append(mc.calls, Call{Op: op, Args: args})
	return mc.failures[op]
}

func (mc *MockClient) nextID(prefix string) string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.seq++
	return fmt.Sprintf("%smock%d", prefix, mc.seq)
}

func (mc *MockClient) FetchRemovalReasons(ctx context.Context, subreddit string) ([]domain.RemovalReason, error) {
	if err := mc.record(ctx, OpFetchReasons, subreddit); err != nil {
		return nil, err
	}
	return append([]domain.RemovalReason(nil), mc.reasons...), nil
}

func (mc *MockClient) SubmitReply(ctx context.Context, target domain.TargetRef, text string) (string, error) {
	if err := mc.record(ctx, OpSubmitReply, target.FullName(), text); err != nil {
		return "", err
	}
	return mc.nextID("t1_"), nil
}

func (mc *MockClient) MarkDistinguished(ctx context.Context, thingID string, pin bool) error {
	return mc.record(ctx, OpDistinguish, thingID, fmt.Sprint(pin))
}

func (mc *MockClient) LockReply(ctx context.Context, thingID string) error {
	return mc.record(ctx, OpLock, thingID)
}

func (mc *MockClient) AddAccountNote(ctx context.Context, note domain.AccountNote) error {
	if err := mc.record(ctx, OpAccountNote, note.User, note.Note, note.LinkedID); err != nil {
		return err
	}
	mc.mu.Lock()
	mc.notes = append(mc.notes, note)
	mc.mu.Unlock()
	return nil
}

func (mc *MockClient) LookupTarget(ctx context.Context, target domain.TargetRef) (domain.TargetInfo, error) {
	if err := mc.record(ctx, OpLookup, target.FullName()); err != nil {
		return domain.TargetInfo{}, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if info, ok := mc.targets[target.FullName()]; ok {
		return info, nil
	}
	return domain.TargetInfo{
		Author:    "simulated_user",
		Permalink: fmt.Sprintf("/r/mock/comments/%s/", target.ID()),
	}, nil
}

func (mc *MockClient) send(ctx context.Context, op string, msg domain.Message) error {
	if err := mc.record(ctx, op, msg.To, msg.Subject, msg.Body); err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.blocked[msg.To] {
		return fmt.Errorf("%w: %s", domain.ErrRecipientUnreachable, blockedSenderLabel)
	}
	mc.messages = append(mc.messages, msg)
	return nil
}

func (mc *MockClient) SendInstitutionalMessage(ctx context.Context, msg domain.Message) (string, error) {
	if err := mc.send(ctx, OpModmail, msg); err != nil {
		return "", err
	}
	return mc.nextID("conv_"), nil
}

func (mc *MockClient) SendDirectMessage(ctx context.Context, msg domain.Message) error {
	return mc.send(ctx, OpDirect, msg)
}

func (mc *MockClient) PostInternalNote(ctx context.Context, conversationID, text string) error {
	return mc.record(ctx, OpInternalNote, conversationID, text)
}

func (mc *MockClient) ArchiveConversation(ctx context.Context, conversationID string) error {
	return mc.record(ctx, OpArchive, conversationID)
}

func (mc *MockClient) SubmitPost(ctx context.Context, subreddit, title, body string) (string, error) {
	if err := mc.record(ctx, OpSubmitPost, subreddit, title, body); err != nil {
		return "", err
	}
	return mc.nextID("t3_"), nil
}

func (mc *MockClient) StickyPost(ctx context.Context, postID string) error {
	return mc.record(ctx, OpSticky, postID)
}
