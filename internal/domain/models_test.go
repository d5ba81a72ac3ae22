package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     TargetKind
		id       string
		fullname string
		wantErr  bool
	}{
		{"comment", "t1_abc", KindComment, "abc", "t1_abc", false},
		{"post", "t3_xyz", KindPost, "xyz", "t3_xyz", false},
		{"surrounding whitespace", "  t3_xyz ", KindPost, "xyz", "t3_xyz", false},
		{"subreddit prefix", "t5_2qh1i", 0, "", "", true},
		{"no prefix", "abc", 0, "", "", true},
		{"prefix only", "t1_", 0, "", "", true},
		{"empty", "", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownTarget)
				assert.False(t, got.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.id, got.ID())
			assert.Equal(t, tt.fullname, got.FullName())
			assert.True(t, got.Valid())
		})
	}
}

func TestTargetNoun(t *testing.T) {
	assert.Equal(t, "post", PostTarget("x").Noun())
	assert.Equal(t, "comment", CommentTarget("x").Noun())
	assert.Equal(t, "", TargetRef{}.FullName())
}

func TestDeliveryOptionsForTarget(t *testing.T) {
	opts := DeliveryOptions{AsComment: true, Pin: true, Lock: true}

	onComment := opts.ForTarget(CommentTarget("abc"))
	assert.False(t, onComment.Pin, "pin must be cleared for comments")
	assert.True(t, onComment.Lock)

	onPost := opts.ForTarget(PostTarget("xyz"))
	assert.True(t, onPost.Pin)
	assert.True(t, onPost.Lock)
}

func TestSessionValidate(t *testing.T) {
	ok := Session{Subreddit: "golang", Moderator: "mod1", AppAccount: "saved-response"}
	assert.NoError(t, ok.Validate())

	missing := ok
	missing.Moderator = ""
	assert.Error(t, missing.Validate())

	missing = ok
	missing.Subreddit = ""
	assert.Error(t, missing.Validate())

	missing = ok
	missing.AppAccount = ""
	assert.Error(t, missing.Validate())
}
