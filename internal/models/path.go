package models

// Path is the set of route ids addressing a document inside one User.
type Path struct {
	UserID         string
	FileID         string
	PostID         string
	CommentID      string
	VoteID         string
	ConversationID string
	MessageID      string
}

// TargetKind tags the document a Path resolved to.
type TargetKind int

const (
	KindNotFound TargetKind = iota
	KindUser
	KindFile
	KindPost
	KindComment
	KindVote
	KindConversation
	KindMessage
)

func (k TargetKind) String() string {
	switch k {
	case KindUser:
		return "User"
	case KindFile:
		return "File"
	case KindPost:
		return "Post"
	case KindComment:
		return "Comment"
	case KindVote:
		return "Vote"
	case KindConversation:
		return "Conversation"
	case KindMessage:
		return "Message"
	default:
		return "NotFound"
	}
}

// Target is the tagged result of resolving a Path. The pointer matching Kind
// is set together with its ancestors. Pointers alias the resolved User, so
// mutations through them are persisted by saving that User.
type Target struct {
	Kind         TargetKind
	User         *User
	File         *PublicFile
	Post         *Post
	Comment      *Comment
	Vote         *Vote
	Conversation *Conversation
	Message      *Message

	// Missing names the path segment that matched nothing when Kind is KindNotFound.
	Missing string
	// MissingID is the id of that segment.
	MissingID string
}

// Found reports whether the path addressed an existing document.
func (t Target) Found() bool {
	return t.Kind != KindNotFound
}

// NotFound converts an unresolved target into a not-found error.
func (t Target) NotFound() error {
	return NewNotFoundError(t.Missing, t.MissingID)
}

// VoteHolder returns the document owning votes when the target is a post, a
// media file or a comment.
func (t Target) VoteHolder() (VoteHolder, bool) {
	switch t.Kind {
	case KindPost:
		return t.Post, true
	case KindFile:
		return t.File, true
	case KindComment:
		return t.Comment, true
	case KindNotFound, KindUser, KindVote, KindConversation, KindMessage:
		return nil, false
	}
	return nil, false
}

// CommentHolder returns the document owning comments when the target is a
// post or a media file.
func (t Target) CommentHolder() (CommentHolder, bool) {
	switch t.Kind {
	case KindPost:
		return t.Post, true
	case KindFile:
		return t.File, true
	case KindNotFound, KindUser, KindComment, KindVote, KindConversation, KindMessage:
		return nil, false
	}
	return nil, false
}

func notFound(resource, id string) Target {
	return Target{Kind: KindNotFound, Missing: resource, MissingID: id}
}

// Resolve walks p from the user down to the addressed document. The shape of
// p selects the target type: the deepest id present wins. Ids that are
// required by a deeper id but absent fail with a FieldError. Ids that match
// nothing yield a KindNotFound target without error. No authorization is
// applied.
func (u *User) Resolve(p Path) (Target, error) {
	if err := p.check(); err != nil {
		return Target{}, err
	}

	switch {
	case p.ConversationID != "":
		return u.resolveConversation(p), nil
	case p.PostID != "" || p.FileID != "":
		return u.resolveFeed(p), nil
	default:
		return Target{Kind: KindUser, User: u}, nil
	}
}

func (p Path) check() error {
	if p.UserID == "" {
		return NewFieldError("userId")
	}
	hasFeed := p.PostID != "" || p.FileID != ""
	if p.PostID != "" && p.FileID != "" {
		return NewValueError("a path cannot address both 'postId' and 'fileId'")
	}
	if p.ConversationID != "" && hasFeed {
		return NewValueError("a path cannot address a conversation and a post or file")
	}
	if (p.CommentID != "" || p.VoteID != "") && !hasFeed {
		return NewFieldError("postId")
	}
	if p.MessageID != "" && p.ConversationID == "" {
		return NewFieldError("conversationId")
	}
	return nil
}

func (u *User) resolveConversation(p Path) Target {
	c := u.Conversations.Find(p.ConversationID)
	if c == nil {
		return notFound("Conversation", p.ConversationID)
	}
	if p.MessageID == "" {
		return Target{Kind: KindConversation, User: u, Conversation: c}
	}
	m := c.Messages.Find(p.MessageID)
	if m == nil {
		return notFound("Message", p.MessageID)
	}
	return Target{Kind: KindMessage, User: u, Conversation: c, Message: m}
}

func (u *User) resolveFeed(p Path) Target {
	var base Target
	var votes *Votes
	var comments *Comments

	if p.PostID != "" {
		post := u.Posts.Find(p.PostID)
		if post == nil {
			return notFound("Post", p.PostID)
		}
		base = Target{Kind: KindPost, User: u, Post: post}
		votes, comments = post.VoteList(), post.CommentList()
	} else {
		file := u.Media.Find(p.FileID)
		if file == nil {
			return notFound("File", p.FileID)
		}
		base = Target{Kind: KindFile, User: u, File: file}
		votes, comments = file.VoteList(), file.CommentList()
	}

	if p.CommentID != "" {
		comment := comments.Find(p.CommentID)
		if comment == nil {
			return notFound("Comment", p.CommentID)
		}
		base.Kind = KindComment
		base.Comment = comment
		votes = comment.VoteList()
	}

	if p.VoteID != "" {
		vote := votes.Find(p.VoteID)
		if vote == nil {
			return notFound("Vote", p.VoteID)
		}
		base.Kind = KindVote
		base.Vote = vote
	}

	return base
}
