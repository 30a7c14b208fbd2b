package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func ptr[T any](v T) *T { return &v }

func assertAppError(t *testing.T, err error, name string) {
	t.Helper()
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T", err)
	assert.Equal(t, name, appErr.Name)
}

func TestStartCase(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"good":         "Good",
		"GOOD":         "Good",
		"myTag":        "My Tag",
		"my tag":       "My Tag",
		"MY_TAG":       "My Tag",
		"  spaced-out ": "Spaced Out",
		"tag2go":       "Tag 2 Go",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StartCase(in), in)
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, SplitList("a, b,,", ","))
	assert.Nil(t, SplitList("", "&"))
}

func TestNewVote(t *testing.T) {
	t.Parallel()

	v, err := NewVote("voter", true, "RIGHT")
	require.NoError(t, err)
	assert.Equal(t, "Right", v.Why)
	assert.False(t, v.ID.IsZero())

	_, err = NewVote("voter", true, "meh")
	assertAppError(t, err, ValueErrorName)

	_, err = NewVote("", true, "good")
	assertAppError(t, err, FieldErrorName)
}

func TestVotes_PushRejectsDuplicateVoter(t *testing.T) {
	t.Parallel()

	votes := Votes{}
	first, _ := NewVote("v1", true, "good")
	require.NoError(t, votes.Push(first))

	dup, _ := NewVote("v1", false, "bad")
	err := votes.Push(dup)
	assertAppError(t, err, ValueErrorName)
	assert.Equal(t, "Cannot vote twice!", err.Error())
	require.Len(t, votes, 1)
	assert.Equal(t, first, votes[0])

	other, _ := NewVote("v2", false, "bad")
	require.NoError(t, votes.Push(other))
	assert.Len(t, votes, 2)
	assert.Equal(t, "v2", votes[1].VoterID)
}

func TestVotes_Update(t *testing.T) {
	t.Parallel()

	votes := Votes{}
	v, _ := NewVote("v1", true, "good")
	v.ModifiedAt = time.Unix(0, 0).UTC()
	require.NoError(t, votes.Push(v))

	updated, err := votes.Update(v.ID.Hex(), VotePatch{Why: ptr("true")})
	require.NoError(t, err)
	assert.True(t, updated.Up, "unset fields are untouched")
	assert.Equal(t, "True", updated.Why)
	assert.True(t, updated.ModifiedAt.After(time.Unix(0, 0)))

	_, err = votes.Update(NewID().Hex(), VotePatch{Up: ptr(false)})
	assertAppError(t, err, NotFoundErrorName)

	_, err = votes.Update(v.ID.Hex(), VotePatch{Why: ptr("nope")})
	assertAppError(t, err, ValueErrorName)
	assert.Equal(t, "True", votes[0].Why)
}

func TestRemove_NoopBranches(t *testing.T) {
	t.Parallel()

	votes := Votes{}
	v, _ := NewVote("v1", true, "good")
	require.NoError(t, votes.Push(v))

	assert.Equal(t, DeleteResult{}, votes.Remove(""))
	assert.Equal(t, DeleteResult{}, votes.Remove(NewID().Hex()))
	assert.Equal(t, DeleteResult{}, votes.Remove("not-an-object-id"))
	assert.Len(t, votes, 1)

	assert.Equal(t, DeleteResult{Acknowledged: true, DeletedCount: 1}, votes.Remove(v.ID.Hex()))
	assert.Empty(t, votes)
}

func TestMessage_EditRefreshesOnlyOnChange(t *testing.T) {
	t.Parallel()

	m, err := NewMessage("a1", "hello", []string{"x.png"})
	require.NoError(t, err)
	past := time.Unix(100, 0).UTC()
	m.ModifiedAt = past

	changed, err := m.Edit(ContentPatch{Text: ptr("hello"), Sources: &[]string{"x.png"}})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, past, m.ModifiedAt)

	changed, err = m.Edit(ContentPatch{Text: ptr("bye")})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "bye", m.Text)
	assert.Len(t, m.Media, 1, "media untouched when not provided")
	assert.True(t, m.ModifiedAt.After(past))

	_, err = m.Edit(ContentPatch{Text: ptr("  ")})
	assertAppError(t, err, ValueErrorName)

	_, err = NewMessage("a1", "", nil)
	assertAppError(t, err, FieldErrorName)
}

func TestMessage_Copy(t *testing.T) {
	t.Parallel()

	m, _ := NewMessage("a1", "hi", []string{"a", "b"})
	c := m.Copy()
	assert.NotEqual(t, m.ID, c.ID)
	assert.Equal(t, m.Text, c.Text)
	assert.Equal(t, m.AuthorID, c.AuthorID)
	require.Len(t, c.Media, 2)
	assert.Equal(t, "a", c.Media[0].Src)
	assert.NotEqual(t, m.Media[0].ID, c.Media[0].ID)
}

func TestPublicFile(t *testing.T) {
	t.Parallel()

	f, err := NewPublicFile("img.png", " caption ", "holiday pics")
	require.NoError(t, err)
	assert.Equal(t, "caption", f.Caption)
	assert.Equal(t, "Holiday Pics", f.Tag)

	_, err = NewPublicFile("", "", "")
	assertAppError(t, err, FieldErrorName)

	_, err = NewPublicFile("img.png", "", "a very long tag name")
	assertAppError(t, err, ValueErrorName)

	media := Media{}
	media.Push(f)
	g, _ := NewPublicFile("b.png", "", "")
	media.Push(g)
	assert.Equal(t, g.ID, media[0].ID, "media is prepended")

	updated, err := media.Update(f.ID.Hex(), FilePatch{Caption: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "", updated.Caption, "empty string clears the caption")
	assert.Equal(t, "Holiday Pics", updated.Tag)
}

func TestMedia_RemoveTagged(t *testing.T) {
	t.Parallel()

	media := Media{}
	for _, tag := range []string{"cats", "dogs", "cats"} {
		f, _ := NewPublicFile("x", "", tag)
		media.Push(f)
	}

	res := media.RemoveTagged("CATS")
	assert.Equal(t, DeleteResult{Acknowledged: true, DeletedCount: 2}, res)
	require.Len(t, media, 1)
	assert.Equal(t, "Dogs", media[0].Tag)

	assert.Equal(t, DeleteResult{}, media.RemoveTagged("birds"))

	res = media.RemoveTagged("")
	assert.Equal(t, DeleteResult{Acknowledged: true, DeletedCount: 1}, res)
	assert.NotNil(t, media)
	assert.Empty(t, media)
}

func TestConversations(t *testing.T) {
	t.Parallel()

	convs := Conversations{}
	a := NewConversation([]string{"u1", "u2"})
	b := NewConversation([]string{"u2", "u1"})
	convs.Push(a)
	convs.Push(b)

	assert.Equal(t, b.ID, convs[0].ID)
	assert.Equal(t, a.ID, convs.Matching([]string{"u1", "u2"}).ID)
	assert.Equal(t, b.ID, convs.Matching([]string{"u2", "u1"}).ID, "participant order matters")
	assert.Nil(t, convs.Matching([]string{"u1"}))

	msg, _ := NewMessage("u1", "hi", nil)
	convs.Matching([]string{"u1", "u2"}).PushMessage(msg)
	assert.True(t, convs[1].HasNew)
	assert.Len(t, convs[1].Messages, 1)

	updated, err := convs.Update(a.ID.Hex(), ConversationPatch{HasNew: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.HasNew)

	res := convs.RemoveMany([]string{a.ID.Hex(), NewID().Hex()})
	assert.Equal(t, DeleteResult{Acknowledged: true, DeletedCount: 1}, res)
	assert.Len(t, convs, 1)
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	u, err := NewUser(" Ada Lovelace ", " ADA@Example.com ", "secret", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.Activated)
	assert.True(t, u.CheckPassword("secret"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.NotZero(t, u.PasswordModifiedAt)
	assert.NotNil(t, u.Posts)

	_, err = NewUser("Ada", "ada@example.com", "secret", "other")
	assertAppError(t, err, ValueErrorName)

	_, err = NewUser("A", "ada@example.com", "secret", "secret")
	assertAppError(t, err, ValueErrorName)

	_, err = NewUser("Ada", "nope", "secret", "secret")
	assertAppError(t, err, ValueErrorName)
}

func TestUser_Apply(t *testing.T) {
	t.Parallel()

	u, err := NewUser("Ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)

	err = u.Apply(UserPatch{About: ptr("hi"), Watchlist: &[]string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", u.About)
	assert.Equal(t, []string{"a", "b"}, u.Watchlist)
	assert.Equal(t, "Ada", u.Name)

	err = u.Apply(UserPatch{About: ptr(""), Name: ptr("X")})
	assertAppError(t, err, ValueErrorName)
	assert.Equal(t, "hi", u.About, "invalid patch leaves user unchanged")

	err = u.Apply(UserPatch{Password: ptr("newpass")})
	assertAppError(t, err, FieldErrorName)

	require.NoError(t, u.Apply(UserPatch{Password: ptr("newpass"), PasswordAgain: ptr("newpass")}))
	assert.True(t, u.CheckPassword("newpass"))

	require.NoError(t, u.Apply(UserPatch{About: ptr("")}))
	assert.Equal(t, "", u.About, "explicit empty value clears the field")
}

func buildTree(t *testing.T) (*User, Post, Comment, Vote, PublicFile, Conversation, Message) {
	t.Helper()

	u, err := NewUser("Ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)

	post, _ := NewPost("a1", "post", nil)
	comment, _ := NewComment("a2", "comment", nil)
	vote, _ := NewVote("v1", true, "good")
	require.NoError(t, comment.Votes.Push(vote))
	post.Comments.Push(comment)
	require.NoError(t, post.Votes.Push(vote))
	u.Posts.Push(post)

	file, _ := NewPublicFile("x.png", "", "tag")
	file.Comments.Push(comment)
	require.NoError(t, file.Votes.Push(vote))
	u.Media.Push(file)

	msg, _ := NewMessage("a1", "hi", nil)
	conv := NewConversation([]string{"a1", "a2"}, msg)
	u.Conversations.Push(conv)

	return u, post, comment, vote, file, conv, msg
}

func TestUser_Resolve(t *testing.T) {
	t.Parallel()

	u, post, comment, vote, file, conv, msg := buildTree(t)
	uid := u.IDHex()

	tests := []struct {
		name string
		path Path
		kind TargetKind
	}{
		{"user", Path{UserID: uid}, KindUser},
		{"post", Path{UserID: uid, PostID: post.ID.Hex()}, KindPost},
		{"file", Path{UserID: uid, FileID: file.ID.Hex()}, KindFile},
		{"post comment", Path{UserID: uid, PostID: post.ID.Hex(), CommentID: comment.ID.Hex()}, KindComment},
		{"file comment", Path{UserID: uid, FileID: file.ID.Hex(), CommentID: comment.ID.Hex()}, KindComment},
		{"post comment vote", Path{UserID: uid, PostID: post.ID.Hex(), CommentID: comment.ID.Hex(), VoteID: vote.ID.Hex()}, KindVote},
		{"file comment vote", Path{UserID: uid, FileID: file.ID.Hex(), CommentID: comment.ID.Hex(), VoteID: vote.ID.Hex()}, KindVote},
		{"post vote", Path{UserID: uid, PostID: post.ID.Hex(), VoteID: vote.ID.Hex()}, KindVote},
		{"file vote", Path{UserID: uid, FileID: file.ID.Hex(), VoteID: vote.ID.Hex()}, KindVote},
		{"conversation", Path{UserID: uid, ConversationID: conv.ID.Hex()}, KindConversation},
		{"message", Path{UserID: uid, ConversationID: conv.ID.Hex(), MessageID: msg.ID.Hex()}, KindMessage},
		{"unknown post", Path{UserID: uid, PostID: NewID().Hex()}, KindNotFound},
		{"unknown comment", Path{UserID: uid, PostID: post.ID.Hex(), CommentID: NewID().Hex()}, KindNotFound},
		{"malformed vote id", Path{UserID: uid, FileID: file.ID.Hex(), VoteID: "zzz"}, KindNotFound},
		{"unknown message", Path{UserID: uid, ConversationID: conv.ID.Hex(), MessageID: NewID().Hex()}, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := u.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, target.Kind)
			assert.Equal(t, tt.kind != KindNotFound, target.Found())
		})
	}
}

func TestUser_ResolveAliasesAggregate(t *testing.T) {
	t.Parallel()

	u, post, comment, _, _, _, _ := buildTree(t)
	target, err := u.Resolve(Path{UserID: u.IDHex(), PostID: post.ID.Hex(), CommentID: comment.ID.Hex()})
	require.NoError(t, err)
	require.Equal(t, KindComment, target.Kind)

	holder, ok := target.VoteHolder()
	require.True(t, ok)
	v, _ := NewVote("v2", false, "wrong")
	require.NoError(t, holder.VoteList().Push(v))

	assert.Len(t, u.Posts[0].Comments[0].Votes, 2, "mutation is visible through the aggregate")

	_, ok = target.CommentHolder()
	assert.False(t, ok)
}

func TestUser_ResolveMissingSegments(t *testing.T) {
	t.Parallel()

	u, _, _, _, _, _, _ := buildTree(t)
	id := NewID().Hex()

	_, err := u.Resolve(Path{})
	assertAppError(t, err, FieldErrorName)

	_, err = u.Resolve(Path{UserID: u.IDHex(), CommentID: id})
	assertAppError(t, err, FieldErrorName)

	_, err = u.Resolve(Path{UserID: u.IDHex(), VoteID: id})
	assertAppError(t, err, FieldErrorName)

	_, err = u.Resolve(Path{UserID: u.IDHex(), MessageID: id})
	assertAppError(t, err, FieldErrorName)

	_, err = u.Resolve(Path{UserID: u.IDHex(), PostID: id, FileID: id})
	assertAppError(t, err, ValueErrorName)
}

func TestTarget_NotFoundError(t *testing.T) {
	t.Parallel()

	u, _, _, _, _, _, _ := buildTree(t)
	id := NewID().Hex()
	target, err := u.Resolve(Path{UserID: u.IDHex(), ConversationID: id})
	require.NoError(t, err)
	assertAppError(t, target.NotFound(), NotFoundErrorName)
	assert.Contains(t, target.NotFound().Error(), id)
}
