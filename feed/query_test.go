package feed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_PageRequest(t *testing.T) {
	req, err := Query{Page: "2", Limit: "15", Sort: "most-liked", Category: "Tech"}.PageRequest()
	require.NoError(t, err)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 15, req.Limit)
	assert.True(t, req.FeaturedFirst)

	req = DefaultConfig().Normalize(req)
	assert.Equal(t, SortMostLiked, req.Sort)
	assert.Equal(t, "tech", req.Filters.Category)
	assert.Equal(t, StatusPublished, req.Filters.Status)

	req, err = Query{FeaturedFirst: "false"}.PageRequest()
	require.NoError(t, err)
	assert.False(t, req.FeaturedFirst)
}

func TestQuery_Invalid(t *testing.T) {
	_, err := Query{Page: "abc"}.PageRequest()
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	_, err = Query{FeaturedFirst: "maybe"}.PageRequest()
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	_, err = Query{Page: "99999999999999999999"}.PageRequest()
	assert.ErrorIs(t, err, ErrInvalidPageRequest, "beyond int range")

	_, err = Query{Limit: "-99999999999999999999"}.PageRequest()
	assert.ErrorIs(t, err, ErrInvalidPageRequest)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := DefaultConfig()
	req := cfg.Normalize(PageRequest{Page: -3, Limit: 1000, Sort: "unknown"})
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 100, req.Limit)
	assert.Equal(t, SortDefault, req.Sort)

	req = cfg.Normalize(PageRequest{Limit: -1, Filters: Filters{Status: "ALL", Query: "  a   b "}})
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, StatusAll, req.Filters.Status)
	assert.Equal(t, "a b", req.Filters.Query)
}

func TestConfig_NormalizeBoundsPage(t *testing.T) {
	cfg := DefaultConfig()
	req := cfg.Normalize(PageRequest{Page: 4611686018427387904, Limit: 4})
	assert.Equal(t, cfg.MaxPage, req.Page)

	cfg.MaxPage = math.MaxInt
	req = cfg.Normalize(PageRequest{Page: math.MaxInt, Limit: 4})
	assert.Equal(t, math.MaxInt/4, req.Page)
	start := (req.Page - 1) * req.Limit
	assert.GreaterOrEqual(t, start, 0)
	assert.GreaterOrEqual(t, start+req.Limit, start)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.DefaultLimit = 500
	assert.Error(t, cfg.Validate())
}
