package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/host"
)

var (
	testSession = domain.Session{Subreddit: "golang", Moderator: "mod1", AppAccount: "saved-response"}
	testTime    = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

type memRecorder struct {
	mu      sync.Mutex
	records []domain.ActionRecord
}

func (m *memRecorder) Record(rec domain.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func newTestDispatcher(h domain.Host, opts ...Option) *Dispatcher {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(h, append([]Option{WithLogger(quiet)}, opts...)...)
}

func TestDispatchComment_OnCommentIgnoresPin(t *testing.T) {
	mc := host.NewMockClient(nil)
	rec := &memRecorder{}
	d := newTestDispatcher(mc, WithRecorder(rec))
	target := domain.CommentTarget("abc")

	out := d.DispatchComment(context.Background(), testSession, target, "Please read the rules.",
		domain.DeliveryOptions{AsComment: true, Pin: true, Lock: true})

	require.Equal(t, StatusDelivered, out.Status, out.Err)
	assert.Equal(t, []string{host.OpSubmitReply, host.OpDistinguish, host.OpLock, host.OpAccountNote}, mc.Ops())

	calls := mc.Calls()
	assert.Equal(t, []string{"t1_abc", "Please read the rules."}, calls[0].Args)
	assert.Equal(t, []string{out.ReplyID, "false"}, calls[1].Args, "pin must be forced off for comments")
	assert.Equal(t, []string{out.ReplyID}, calls[2].Args)

	notes := mc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.AccountNote{
		Subreddit: "golang",
		User:      "saved-response",
		Note:      "Saved Response left by u/mod1.",
		LinkedID:  out.ReplyID,
	}, notes[0])

	require.Len(t, rec.records, 1)
	assert.Equal(t, "delivered", rec.records[0].Status)
	assert.Equal(t, "t1_abc", rec.records[0].Target)
	assert.NotEmpty(t, rec.records[0].ID)
	assert.Equal(t, "Saved response posted as comment.", out.Notice())
}

func TestDispatchComment_OnPostPinsWithoutLock(t *testing.T) {
	mc := host.NewMockClient(nil)
	d := newTestDispatcher(mc)

	out := d.DispatchComment(context.Background(), testSession, domain.PostTarget("xyz"), "Approved.",
		domain.DeliveryOptions{Pin: true, Lock: false})

	require.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, []string{host.OpSubmitReply, host.OpDistinguish, host.OpAccountNote}, mc.Ops())
	assert.Equal(t, "true", mc.Calls()[1].Args[1])
}

func TestDispatchComment_SubmitFailureIsFatal(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.FailOn(host.OpSubmitReply, errors.New("THREAD_LOCKED"))
	d := newTestDispatcher(mc)

	out := d.DispatchComment(context.Background(), testSession, domain.PostTarget("xyz"), "text",
		domain.DeliveryOptions{Pin: true, Lock: true})

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "THREAD_LOCKED")
	assert.Empty(t, out.ReplyID)
	assert.Equal(t, []string{host.OpSubmitReply}, mc.Ops())
	assert.True(t, strings.HasPrefix(out.Notice(), "Saved response was not posted"))
}

func TestDispatchComment_FollowUpFailuresDegrade(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.FailOn(host.OpDistinguish, errors.New("forbidden"))
	mc.FailOn(host.OpLock, errors.New("forbidden"))
	d := newTestDispatcher(mc)

	out := d.DispatchComment(context.Background(), testSession, domain.CommentTarget("abc"), "text",
		domain.DeliveryOptions{Lock: true})

	assert.Equal(t, StatusDegraded, out.Status)
	assert.True(t, out.Status.Delivered())
	assert.NoError(t, out.Err)
	require.Len(t, out.Degraded, 2)
	assert.Equal(t, "distinguish", out.Degraded[0].Step)
	assert.Equal(t, "lock", out.Degraded[1].Step)
	// The note is still attempted last.
	assert.Equal(t, []string{host.OpSubmitReply, host.OpDistinguish, host.OpLock, host.OpAccountNote}, mc.Ops())
	assert.Equal(t, "Saved response posted as comment. Follow-up steps failed: distinguish, lock.", out.Notice())
}

func TestDispatchComment_EditFirst(t *testing.T) {
	mc := host.NewMockClient(nil)
	var seen Draft
	editor := EditorFunc(func(ctx context.Context, d Draft) (Draft, error) {
		seen = d
		d.Text = "Edited text"
		d.Options.Pin = true // not allowed on a comment
		d.Options.Lock = false
		return d, nil
	})
	d := newTestDispatcher(mc, WithEditor(editor))

	out := d.DispatchComment(context.Background(), testSession, domain.CommentTarget("abc"), "Original",
		domain.DeliveryOptions{EditFirst: true, Lock: true})

	require.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, StateEditPending, seen.State)
	assert.Equal(t, "Original", seen.Text)
	assert.True(t, seen.Options.Lock, "lock is carried into the edit step")

	calls := mc.Calls()
	assert.Equal(t, "Edited text", calls[0].Args[1])
	assert.Equal(t, "false", calls[1].Args[1])
	assert.Equal(t, []string{host.OpSubmitReply, host.OpDistinguish, host.OpAccountNote}, mc.Ops())
}

func TestDispatchComment_EditCancelled(t *testing.T) {
	mc := host.NewMockClient(nil)
	editor := EditorFunc(func(ctx context.Context, d Draft) (Draft, error) {
		return d, ErrEditCancelled
	})
	d := newTestDispatcher(mc, WithEditor(editor))

	out := d.DispatchComment(context.Background(), testSession, domain.PostTarget("xyz"), "text",
		domain.DeliveryOptions{EditFirst: true})

	assert.Equal(t, StatusCancelled, out.Status)
	assert.Empty(t, mc.Ops())
	assert.Equal(t, "Saved response discarded.", out.Notice())
}

func TestDispatchComment_EditWithoutEditor(t *testing.T) {
	mc := host.NewMockClient(nil)
	d := newTestDispatcher(mc)

	out := d.DispatchComment(context.Background(), testSession, domain.PostTarget("xyz"), "text",
		domain.DeliveryOptions{EditFirst: true})

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrNoEditor)
	assert.Empty(t, mc.Ops())
}

func TestDispatchComment_RejectsBadInput(t *testing.T) {
	mc := host.NewMockClient(nil)
	d := newTestDispatcher(mc)

	out := d.DispatchComment(context.Background(), testSession, domain.TargetRef{}, "text", domain.DeliveryOptions{})
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, domain.ErrUnknownTarget)

	out = d.DispatchComment(context.Background(), testSession, domain.PostTarget("xyz"), "   ", domain.DeliveryOptions{})
	assert.ErrorIs(t, out.Err, ErrEmptyResponse)

	out = d.DispatchComment(context.Background(), domain.Session{Subreddit: "golang"}, domain.PostTarget("xyz"), "text", domain.DeliveryOptions{})
	assert.Equal(t, StatusFailed, out.Status)

	assert.Empty(t, mc.Ops())
}

func TestDispatchMessage_Modmail(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.AddTarget("t3_xyz", domain.TargetInfo{Author: "alice", Permalink: "/r/golang/comments/xyz/title/"})
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.PostTarget("xyz"), "Your post was removed.",
		domain.DeliveryOptions{SendAsInstitution: true, Pin: true, Lock: true})

	require.Equal(t, StatusDelivered, out.Status, out.Err)
	assert.Equal(t, []string{host.OpLookup, host.OpModmail, host.OpInternalNote, host.OpArchive}, mc.Ops())
	assert.Equal(t, "alice", out.Recipient)
	assert.NotEmpty(t, out.ConversationID)

	msgs := mc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.Message{
		Subject:   "A message from r/golang",
		Body:      "In response to [your post](/r/golang/comments/xyz/title/):\n\n---\n\nYour post was removed.",
		To:        "alice",
		Subreddit: "golang",
	}, msgs[0])

	calls := mc.Calls()
	assert.Equal(t, []string{out.ConversationID, "Originally sent by u/mod1."}, calls[2].Args)
	assert.Empty(t, mc.Notes())
	assert.Equal(t, "Saved response sent as PM.", out.Notice())
}

func TestDispatchMessage_ArchiveFailureSwallowed(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.FailOn(host.OpArchive, errors.New("cannot archive mod discussion"))
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.CommentTarget("abc"), "hi",
		domain.DeliveryOptions{SendAsInstitution: true})

	assert.Equal(t, StatusDelivered, out.Status)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Degraded)
	assert.Equal(t, []string{host.OpLookup, host.OpModmail, host.OpInternalNote, host.OpArchive}, mc.Ops())
}

func TestDispatchMessage_InternalNoteFailureStillArchives(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.FailOn(host.OpInternalNote, errors.New("boom"))
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.CommentTarget("abc"), "hi",
		domain.DeliveryOptions{SendAsInstitution: true})

	assert.Equal(t, StatusDegraded, out.Status)
	assert.Equal(t, []string{host.OpLookup, host.OpModmail, host.OpInternalNote, host.OpArchive}, mc.Ops())
}

func TestDispatchMessage_Direct(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.AddTarget("t1_abc", domain.TargetInfo{Author: "bob", Permalink: "/r/golang/comments/xyz/title/abc/"})
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.CommentTarget("abc"), "Be civil.",
		domain.DeliveryOptions{})

	require.Equal(t, StatusDelivered, out.Status, out.Err)
	assert.Equal(t, []string{host.OpLookup, host.OpDirect, host.OpAccountNote}, mc.Ops())

	msgs := mc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "In response to [your comment](/r/golang/comments/xyz/title/abc/):\n\n---\n\nBe civil."+
		"\n\n---\n\n*This inbox is not monitored. If you have any questions, please message the moderators of r/golang.*",
		msgs[0].Body)

	notes := mc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "PM sent to u/bob by u/mod1.", notes[0].Note)
	assert.Equal(t, "t1_abc", notes[0].LinkedID)
	assert.Equal(t, "saved-response", notes[0].User)
}

func TestDispatchMessage_RecipientUnreachable(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.AddTarget("t3_xyz", domain.TargetInfo{Author: "carol", Permalink: "/r/golang/comments/xyz/"})
	mc.Block("carol")
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.PostTarget("xyz"), "hi",
		domain.DeliveryOptions{AsComment: false, SendAsInstitution: false})

	assert.Equal(t, StatusRecipientUnreachable, out.Status)
	assert.ErrorIs(t, out.Err, domain.ErrRecipientUnreachable)
	assert.Empty(t, mc.Notes(), "no note for an undelivered message")
	assert.Equal(t, []string{host.OpLookup, host.OpDirect}, mc.Ops())
	assert.Equal(t, "Message not sent: u/carol does not accept messages from this account.", out.Notice())
}

func TestDispatchMessage_GenericSendFailure(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.FailOn(host.OpModmail, errors.New("RATELIMIT"))
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.PostTarget("xyz"), "hi",
		domain.DeliveryOptions{SendAsInstitution: true})

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, []string{host.OpLookup, host.OpModmail}, mc.Ops())
	assert.True(t, strings.HasPrefix(out.Notice(), "Message not sent:"))
}

func TestDispatchMessage_UnknownAuthor(t *testing.T) {
	mc := host.NewMockClient(nil)
	mc.AddTarget("t1_gone", domain.TargetInfo{Author: "", Permalink: "/r/golang/comments/x/y/gone/"})
	d := newTestDispatcher(mc)

	out := d.DispatchMessage(context.Background(), testSession, domain.CommentTarget("gone"), "hi", domain.DeliveryOptions{})

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, domain.ErrUnknownAuthor)
	assert.Equal(t, []string{host.OpLookup}, mc.Ops())
}

func TestDispatchMessage_EditCanSwitchToModmail(t *testing.T) {
	mc := host.NewMockClient(nil)
	editor := EditorFunc(func(ctx context.Context, d Draft) (Draft, error) {
		d.Text = "edited"
		d.Options.SendAsInstitution = true
		return d, nil
	})
	d := newTestDispatcher(mc, WithEditor(editor))

	out := d.DispatchMessage(context.Background(), testSession, domain.PostTarget("xyz"), "orig",
		domain.DeliveryOptions{EditFirst: true})

	require.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, []string{host.OpLookup, host.OpModmail, host.OpInternalNote, host.OpArchive}, mc.Ops())
	assert.True(t, strings.HasSuffix(mc.Messages()[0].Body, "edited"))
}

func TestCreateModPost(t *testing.T) {
	mc := host.NewMockClient(nil)
	d := newTestDispatcher(mc)

	out := d.CreateModPost(context.Background(), testSession, "Weekly thread", "Discuss.", true)

	require.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, []string{host.OpSubmitPost, host.OpDistinguish, host.OpSticky}, mc.Ops())
	assert.Equal(t, []string{"golang", "Weekly thread", "Discuss."}, mc.Calls()[0].Args)
	assert.Equal(t, "Post created successfully.", out.Notice())

	mc2 := host.NewMockClient(nil)
	out = newTestDispatcher(mc2).CreateModPost(context.Background(), testSession, "Title", "Body", false)
	require.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, []string{host.OpSubmitPost, host.OpDistinguish}, mc2.Ops())
}

func TestCreateModPost_RequiresTitleAndBody(t *testing.T) {
	mc := host.NewMockClient(nil)
	out := newTestDispatcher(mc).CreateModPost(context.Background(), testSession, "", "Body", false)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Empty(t, mc.Ops())
}

func TestNewDraft_GatesPin(t *testing.T) {
	d := NewDraft(ModeComment, domain.CommentTarget("abc"), "t", domain.DeliveryOptions{Pin: true})
	assert.False(t, d.Options.Pin)
	assert.True(t, d.Options.AsComment)
	assert.Equal(t, StateDrafted, d.State)

	d = NewDraft(ModeMessage, domain.PostTarget("xyz"), "t", domain.DeliveryOptions{AsComment: true, Pin: true})
	assert.False(t, d.Options.AsComment)
	assert.True(t, d.Options.Pin)
}

func TestOutcomeRecord(t *testing.T) {
	out := Outcome{
		ActionID: "id-1",
		Mode:     ModeMessage,
		Status:   StatusRecipientUnreachable,
		Target:   domain.PostTarget("xyz"),
		Err:      domain.ErrRecipientUnreachable,
	}
	rec := out.Record(testSession, testTime)

	assert.Equal(t, "recipient_unreachable", rec.Status)
	assert.Equal(t, "t3_xyz", rec.Target)
	assert.Equal(t, "mod1", rec.Moderator)
	assert.Equal(t, domain.ErrRecipientUnreachable.Error(), rec.Error)
}
