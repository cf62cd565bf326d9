package post

import (
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/event"
)

// 事件名，与 cache 失效规则中的键一致
const (
	EventPostCreated       = "post.created"
	EventPostUpdated       = "post.updated"
	EventPostDeleted       = "post.deleted"
	EventPostStatusChanged = "post.status_changed"
	EventPostFeatured      = "post.featured"
	EventPostUnfeatured    = "post.unfeatured"
	EventPostLiked         = "post.liked"
	EventPostUnliked       = "post.unliked"
	EventCommentCreated    = "comment.created"
	EventCommentDeleted    = "comment.deleted"
	EventUserFollowed      = "user.followed"
	EventUserUnfollowed    = "user.unfollowed"
)

// PostEvent 帖子变更
type PostEvent struct {
	event.BaseEvent
	PostID  uint64
	ActorID uint64
}

func newPostEvent(name string, at time.Time, postID, actorID uint64) PostEvent {
	return PostEvent{BaseEvent: event.NewEventAt(name, at), PostID: postID, ActorID: actorID}
}

// CacheKeys 单条帖子缓存
func (e PostEvent) CacheKeys() []string {
	return []string{cache.ItemKey(e.PostID)}
}

// CommentEvent 评论变更（改变评论数）
type CommentEvent struct {
	event.BaseEvent
	CommentID uint64
	PostID    uint64
	AuthorID  uint64
}

func (e CommentEvent) CacheKeys() []string {
	return []string{cache.ItemKey(e.PostID)}
}

// FollowEvent 关注关系变更
type FollowEvent struct {
	event.BaseEvent
	FollowerID uint64
	FolloweeID uint64
}
