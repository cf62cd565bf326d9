package cache

import "time"

// 资源名互不为子串，按资源失效时不会误伤其他资源
const (
	ResourceFeedGeneral   = "feed:general"
	ResourceFeedFollowing = "feed:following"
	ResourceFeedFeatured  = "feed:featured"
	ResourcePostItem      = "post:item"
	ResourcePostSearch    = "post:search"
)

// pageFields 所有会传到数据源的分页与过滤参数，缺一个就会让不同请求共用同一个 key
var pageFields = []string{"page", "limit", "sort", "status", "category", "query", "featured_first"}

var (
	FeedGeneralSpec = KeySpec{
		Resource: ResourceFeedGeneral,
		Fields:   pageFields,
		TTL:      120 * time.Second,
	}
	FeedFollowingSpec = KeySpec{
		Resource: ResourceFeedFollowing,
		Fields:   append([]string{"user_id"}, pageFields...),
		TTL:      180 * time.Second,
	}
	FeedFeaturedSpec = KeySpec{
		Resource: ResourceFeedFeatured,
		Fields:   []string{"page", "limit", "sort", "status", "category", "query"},
		TTL:      300 * time.Second,
	}
	PostItemSpec = KeySpec{
		Resource: ResourcePostItem,
		Fields:   []string{"id"},
		TTL:      600 * time.Second,
	}
	PostSearchSpec = KeySpec{
		Resource: ResourcePostSearch,
		Fields:   pageFields,
		TTL:      300 * time.Second,
	}
)

// ItemKey 单条帖子的 key
func ItemKey(id uint64) string {
	return PostItemSpec.MustKey(Params{"id": id})
}

// FeedResources 所有 feed 类资源（不含单条）
var FeedResources = []string{
	ResourceFeedGeneral,
	ResourceFeedFollowing,
	ResourceFeedFeatured,
	ResourcePostSearch,
}

// DefaultInvalidationRules 事件名 -> 需要失效的资源
func DefaultInvalidationRules() map[string][]string {
	feeds := func() []string { return append([]string(nil), FeedResources...) }
	return map[string][]string{
		"post.created":        feeds(),
		"post.updated":        feeds(),
		"post.deleted":        feeds(),
		"post.status_changed": feeds(),
		"post.featured":       feeds(),
		"post.unfeatured":     feeds(),
		"post.liked":          feeds(),
		"post.unliked":        feeds(),
		"comment.created":     feeds(),
		"comment.deleted":     feeds(),
		"user.followed":       {ResourceFeedFollowing},
		"user.unfollowed":     {ResourceFeedFollowing},
	}
}
