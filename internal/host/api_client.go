package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/qepting91/saved-response/internal/config"
	"github.com/qepting91/saved-response/internal/domain"
)

// Reddit's error label when a user only accepts messages from trusted senders.
const blockedSenderLabel = "NOT_WHITELISTED_BY_USER_MESSAGE"

// APIClient implements domain.Host against the authenticated Reddit API.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewAPIClient(creds config.Credentials, opts ...reddit.Opt) (*APIClient, error) {
	rc := reddit.Credentials{
		ID:       creds.ClientID,
		Secret:   creds.ClientSecret,
		Username: creds.Username,
		Password: creds.Password,
	}

	base := []reddit.Opt{reddit.WithHTTPClient(&http.Client{Transport: reasonTransport{}})}
	if creds.UserAgent != "" {
		base = append(base, reddit.WithUserAgent(creds.UserAgent))
	}
	opts = append(base, opts...)
	client, err := reddit.NewClient(rc, opts...)
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter}, nil
}

func (ac *APIClient) wait(ctx context.Context) error {
	return ac.limiter.Wait(ctx)
}

// APIError is a failed call whose body named a reason label, the error
// shape of the newer endpoints (modmail, notes). go-reddit only keeps the
// "message" field of such bodies.
type APIError struct {
	Reason      string
	Explanation string
	Err         error
}

func (e *APIError) Error() string {
	if e.Explanation != "" {
		return fmt.Sprintf("%v: %s: %s", e.Err, e.Reason, e.Explanation)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *APIError) Unwrap() error { return e.Err }

type reasonKey struct{}

// withReasonSlot marks ctx so reasonTransport decodes error bodies into
// the returned slot.
func withReasonSlot(ctx context.Context) (context.Context, *APIError) {
	slot := &APIError{}
	return context.WithValue(ctx, reasonKey{}, slot), slot
}

// reasonError wraps err with the decoded reason label, if one was seen.
func reasonError(err error, slot *APIError) error {
	err = fmt.Errorf("authenticated api error: %w", err)
	if slot.Reason == "" {
		return err
	}
	slot.Err = err
	return slot
}

// reasonTransport peeks at error bodies before go-reddit consumes them.
// The body is restored so go-reddit still builds its own error.
type reasonTransport struct {
	base http.RoundTripper
}

func (t reasonTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	slot, ok := req.Context().Value(reasonKey{}).(*APIError)
	if !ok {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		return resp, nil
	}
	var payload struct {
		Reason      string `json:"reason"`
		Explanation string `json:"explanation"`
	}
	if json.Unmarshal(body, &payload) == nil {
		slot.Reason = payload.Reason
		slot.Explanation = payload.Explanation
	}
	return resp, nil
}

// call covers the endpoints go-reddit has no service method for.
func (ac *APIClient) call(ctx context.Context, method, path string, form url.Values, v interface{}) error {
	if err := ac.wait(ctx); err != nil {
		return err
	}
	req, err := ac.client.NewRequest(method, path, form)
	if err != nil {
		return err
	}
	ctx, slot := withReasonSlot(ctx)
	if _, err := ac.client.Do(ctx, req, v); err != nil {
		return reasonError(err, slot)
	}
	return nil
}

type removalReasonsResponse struct {
	Data map[string]struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"data"`
	Order []string `json:"order"`
}

func (ac *APIClient) FetchRemovalReasons(ctx context.Context, subreddit string) ([]domain.RemovalReason, error) {
	var resp removalReasonsResponse
	path := fmt.Sprintf("api/v1/%s/removal_reasons", url.PathEscape(subreddit))
	if err := ac.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]domain.RemovalReason, 0, len(resp.Order))
	for _, id := range resp.Order {
		r, ok := resp.Data[id]
		if !ok {
			continue
		}
		if r.ID == "" {
			r.ID = id
		}
		result = append(result, domain.RemovalReason{ID: r.ID, Title: r.Title, Message: r.Message})
	}
	return result, nil
}

func (ac *APIClient) SubmitReply(ctx context.Context, target domain.TargetRef, text string) (string, error) {
	if err := ac.wait(ctx); err != nil {
		return "", err
	}
	comment, _, err := ac.client.Comment.Submit(ctx, target.FullName(), text)
	if err != nil {
		return "", fmt.Errorf("authenticated api error: %w", err)
	}
	return comment.FullID, nil
}

func (ac *APIClient) MarkDistinguished(ctx context.Context, thingID string, pin bool) error {
	form := url.Values{
		"api_type": {"json"},
		"id":       {thingID},
		"how":      {"yes"},
		"sticky":   {strconv.FormatBool(pin)},
	}
	return ac.call(ctx, http.MethodPost, "api/distinguish", form, nil)
}

func (ac *APIClient) LockReply(ctx context.Context, thingID string) error {
	if err := ac.wait(ctx); err != nil {
		return err
	}
	if _, err := ac.client.Comment.Lock(ctx, thingID); err != nil {
		return fmt.Errorf("authenticated api error: %w", err)
	}
	return nil
}

func (ac *APIClient) AddAccountNote(ctx context.Context, note domain.AccountNote) error {
	form := url.Values{
		"subreddit": {note.Subreddit},
		"user":      {note.User},
		"note":      {note.Note},
	}
	if note.LinkedID != "" {
		form.Set("reddit_id", note.LinkedID)
	}
	return ac.call(ctx, http.MethodPost, "api/mod/notes", form, nil)
}

type infoResponse struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Name      string `json:"name"`
				Author    string `json:"author"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (ac *APIClient) LookupTarget(ctx context.Context, target domain.TargetRef) (domain.TargetInfo, error) {
	var resp infoResponse
	path := "api/info?id=" + url.QueryEscape(target.FullName())
	if err := ac.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return domain.TargetInfo{}, err
	}

	for _, child := range resp.Data.Children {
		d := child.Data
		if d.Name != "" && d.Name != target.FullName() {
			continue
		}
		author := d.Author
		if author == "[deleted]" {
			author = ""
		}
		return domain.TargetInfo{Author: author, Permalink: d.Permalink}, nil
	}
	return domain.TargetInfo{}, fmt.Errorf("%s not found", target)
}

type conversationResponse struct {
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
}

func (ac *APIClient) SendInstitutionalMessage(ctx context.Context, msg domain.Message) (string, error) {
	form := url.Values{
		"subject":        {msg.Subject},
		"body":           {msg.Body},
		"to":             {msg.To},
		"srName":         {msg.Subreddit},
		"isAuthorHidden": {"true"},
	}
	var resp conversationResponse
	if err := ac.call(ctx, http.MethodPost, "api/mod/conversations", form, &resp); err != nil {
		return "", mapSendError(err)
	}
	if resp.Conversation.ID == "" {
		return "", fmt.Errorf("modmail created without a conversation id")
	}
	return resp.Conversation.ID, nil
}

func (ac *APIClient) SendDirectMessage(ctx context.Context, msg domain.Message) error {
	if err := ac.wait(ctx); err != nil {
		return err
	}
	ctx, slot := withReasonSlot(ctx)
	_, err := ac.client.Message.Send(ctx, &reddit.SendMessageRequest{
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return mapSendError(reasonError(err, slot))
	}
	return nil
}

func (ac *APIClient) PostInternalNote(ctx context.Context, conversationID, text string) error {
	form := url.Values{
		"body":           {text},
		"isAuthorHidden": {"false"},
		"isInternal":     {"true"},
	}
	path := "api/mod/conversations/" + url.PathEscape(conversationID)
	return ac.call(ctx, http.MethodPost, path, form, nil)
}

func (ac *APIClient) ArchiveConversation(ctx context.Context, conversationID string) error {
	path := "api/mod/conversations/" + url.PathEscape(conversationID) + "/archive"
	return ac.call(ctx, http.MethodPost, path, url.Values{}, nil)
}

func (ac *APIClient) SubmitPost(ctx context.Context, subreddit, title, body string) (string, error) {
	if err := ac.wait(ctx); err != nil {
		return "", err
	}
	submitted, _, err := ac.client.Post.SubmitText(ctx, reddit.SubmitTextRequest{
		Subreddit: subreddit,
		Title:     title,
		Text:      body,
	})
	if err != nil {
		return "", fmt.Errorf("authenticated api error: %w", err)
	}
	return submitted.FullID, nil
}

func (ac *APIClient) StickyPost(ctx context.Context, postID string) error {
	if err := ac.wait(ctx); err != nil {
		return err
	}
	if _, err := ac.client.Post.Sticky(ctx, postID, false); err != nil {
		return fmt.Errorf("authenticated api error: %w", err)
	}
	return nil
}

func mapSendError(err error) error {
	if err != nil && isBlockedSender(err) {
		return fmt.Errorf("%w: %w", domain.ErrRecipientUnreachable, err)
	}
	return err
}

// isBlockedSender checks the decoded reason label first, then the legacy
// {"json":{"errors":[...]}} shape, which go-reddit folds into the message.
func isBlockedSender(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Reason == blockedSenderLabel {
		return true
	}
	return strings.Contains(err.Error(), blockedSenderLabel)
}
