package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "main", cfg.RedisInstance)
	assert.Equal(t, "feedsvc:", cfg.KeyPrefix)
	assert.Equal(t, 100*time.Millisecond, cfg.RemoteTimeout)
	assert.Equal(t, 10000, cfg.LocalMaxEntries)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LocalMaxEntries = 0
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = DefaultConfig()
	cfg.TTLs = map[string]time.Duration{ResourceFeedGeneral: time.Millisecond}
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = DefaultConfig()
	cfg.InvalidationRules = []InvalidationRule{{Event: "post.created", Resources: []string{"feed:unknown"}}}
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = DefaultConfig()
	cfg.InvalidationRules = []InvalidationRule{{Event: "post.created", Resources: []string{ResourceFeedGeneral}}}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Rules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InvalidationRules = []InvalidationRule{
		{Event: "post.liked", Resources: []string{ResourceFeedGeneral}},
		{Event: "post.pinned", Resources: []string{ResourceFeedFeatured}},
	}
	rules := cfg.Rules()
	assert.Equal(t, []string{ResourceFeedGeneral}, rules["post.liked"])
	assert.Equal(t, []string{ResourceFeedFeatured}, rules["post.pinned"])
	assert.ElementsMatch(t, FeedResources, rules["post.created"])
	assert.Equal(t, []string{ResourceFeedFollowing}, rules["user.followed"])
}
