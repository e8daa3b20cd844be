package domain

// Event types published on a panel's sync channel after a post mutation.
const (
	EventNewPost     = "NEW_POST"
	EventPostMoved   = "POST_MOVED"
	EventPostDeleted = "POST_DELETED"
)

// Event is the wire format fanned out to every server process subscribed
// to a panel's channel. NEW_POST and POST_MOVED carry the full post;
// POST_DELETED carries only the id, since the row no longer exists.
type Event struct {
	Type   string `json:"type"`
	Post   *Post  `json:"post,omitempty"`
	PostID string `json:"postId,omitempty"`
}
