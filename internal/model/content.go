package model

import "time"

// MediaType distinguishes uploaded images from videos.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is an uploaded file living in object storage.  Only the object key
// is persisted; signed URLs are derived from it on demand and never stored.
type Media struct {
	ID        uint64
	UserID    uint64
	Type      MediaType
	ObjectKey string
	CreatedAt time.Time
}

// Post is a feed entry.  Likes and comments are loaded alongside the post
// when the full entity is needed; list queries fetch only the counters.
type Post struct {
	ID        uint64
	AuthorID  uint64
	Content   string
	MediaIDs  []uint64
	Likes     []Like
	Shares    []Like
	Comments  []Comment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Like records one user liking a post, story or comment.
type Like struct {
	UserID    uint64
	CreatedAt time.Time
}

// Comment belongs to a post.  Replies reference their parent comment via
// ParentID.  Deleted comments stay in place with the flag set so reply
// threads keep their shape.
type Comment struct {
	ID        uint64
	PostID    uint64
	ParentID  *uint64
	AuthorID  uint64
	Content   string
	Deleted   bool
	Likes     []Like
	CreatedAt time.Time
}

// ToggleLike adds the user's like, or removes it when already present, and
// reports whether the post is liked afterwards.  It only mutates the
// in-memory entity; the repository persists the change.
func (p *Post) ToggleLike(userID uint64) bool {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return false
		}
	}
	p.Likes = append(p.Likes, Like{UserID: userID, CreatedAt: time.Now().UTC()})
	return true
}

// LikeCount returns the number of likes on the post.
func (p *Post) LikeCount() int { return len(p.Likes) }

// ToggleLike on a comment works like Post.ToggleLike; replies are comments
// too, so it covers both.
func (c *Comment) ToggleLike(userID uint64) bool {
	for i, l := range c.Likes {
		if l.UserID == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return false
		}
	}
	c.Likes = append(c.Likes, Like{UserID: userID, CreatedAt: time.Now().UTC()})
	return true
}

// LikeCount returns the number of likes on the comment.
func (c *Comment) LikeCount() int { return len(c.Likes) }

// ShareCount returns how many distinct users have shared the post.
func (p *Post) ShareCount() int { return len(p.Shares) }

// VisibleCommentCount counts comments that have not been deleted.
func (p *Post) VisibleCommentCount() int {
	n := 0
	for _, c := range p.Comments {
		if !c.Deleted {
			n++
		}
	}
	return n
}

// ReactionType enumerates the story reactions a user can leave.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ValidReaction reports whether s names a known reaction type.
func ValidReaction(s string) bool {
	switch ReactionType(s) {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Reaction is one user's reaction on a story.  A user has at most one
// reaction per story; reacting again replaces the previous one.
type Reaction struct {
	UserID    uint64
	Reaction  ReactionType
	CreatedAt time.Time
}

// Story is an ephemeral media post that expires 24 hours after creation.
type Story struct {
	ID        uint64
	AuthorID  uint64
	MediaID   uint64
	Caption   string
	Reactions []Reaction
	Viewers   []uint64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// StoryTTL is how long a story stays visible.
const StoryTTL = 24 * time.Hour

// Expired reports whether the story should no longer be served.
func (s *Story) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// React sets or replaces the user's reaction on the story.
func (s *Story) React(userID uint64, r ReactionType) {
	now := time.Now().UTC()
	for i := range s.Reactions {
		if s.Reactions[i].UserID == userID {
			s.Reactions[i].Reaction = r
			s.Reactions[i].CreatedAt = now
			return
		}
	}
	s.Reactions = append(s.Reactions, Reaction{UserID: userID, Reaction: r, CreatedAt: now})
}

// RemoveReaction clears the user's reaction, if any.
func (s *Story) RemoveReaction(userID uint64) {
	for i, r := range s.Reactions {
		if r.UserID == userID {
			s.Reactions = append(s.Reactions[:i], s.Reactions[i+1:]...)
			return
		}
	}
}

// AddViewer records that the user has seen the story.  Repeat views are
// ignored.
func (s *Story) AddViewer(userID uint64) {
	for _, v := range s.Viewers {
		if v == userID {
			return
		}
	}
	s.Viewers = append(s.Viewers, userID)
}
