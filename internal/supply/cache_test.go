package supply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/polarstock/internal/provider"
)

func TestQueryResultCache_FirstPageUsesDoubleCount(t *testing.T) {
	p := newFakeProvider(20)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))

	got := c.Acquire(context.Background(), "coffee", 3)
	assert.Equal(t, []string{"0", "1", "2"}, ids(got))
	require.Len(t, p.calls, 1)
	assert.Equal(t, 6, p.calls[0].PageSize)
	assert.Empty(t, p.calls[0].Token)
}

func TestQueryResultCache_ShufflesFirstPage(t *testing.T) {
	p := newFakeProvider(4)
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	c := NewQueryResultCache(p, WithShuffle(reverse))

	got := c.Acquire(context.Background(), "coffee", 2)
	assert.Equal(t, []string{"3", "2"}, ids(got))
}

func TestQueryResultCache_CursorMonotonicityAndLoop(t *testing.T) {
	p := newFakeProvider(4)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	first := c.Acquire(ctx, "coffee", 2)
	second := c.Acquire(ctx, "coffee", 2)
	assert.Equal(t, []string{"0", "1"}, ids(first))
	assert.Equal(t, []string{"2", "3"}, ids(second))

	stats, ok := c.Stats("coffee")
	require.True(t, ok)
	assert.Equal(t, 4, stats.Cursor)
	assert.False(t, stats.Exhausted)

	looped := c.Acquire(ctx, "coffee", 2)
	require.NotEmpty(t, looped)
	assert.Equal(t, first[0].ID, looped[0].ID)

	stats, _ = c.Stats("coffee")
	assert.True(t, stats.Exhausted)
	assert.Equal(t, 1, p.callCount(), "no token means no further fetches")
}

func TestQueryResultCache_FollowsContinuationToken(t *testing.T) {
	p := newFakeProvider(10)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	assert.Equal(t, []string{"0", "1", "2"}, ids(c.Acquire(ctx, "coffee", 3)))
	assert.Equal(t, []string{"3", "4", "5"}, ids(c.Acquire(ctx, "coffee", 3)))
	assert.Equal(t, []string{"6", "7", "8"}, ids(c.Acquire(ctx, "coffee", 3)))

	require.Len(t, p.calls, 2)
	assert.Equal(t, "6", p.calls[1].Token)
	assert.Equal(t, 6, p.calls[1].PageSize)

	stats, _ := c.Stats("coffee")
	assert.Equal(t, 10, stats.Items)
	assert.False(t, stats.HasMore)
}

func TestQueryResultCache_DropsOverlappingIDs(t *testing.T) {
	p := newFakeProvider(10)
	p.overlap = 2
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	c.Acquire(ctx, "coffee", 3)
	c.Acquire(ctx, "coffee", 3)
	got := c.Acquire(ctx, "coffee", 3)

	assert.Equal(t, []string{"6", "7", "8"}, ids(got))
	stats, _ := c.Stats("coffee")
	assert.Equal(t, 10, stats.Items, "overlapping photos must not be appended twice")
}

func TestQueryResultCache_FirstPageFailure(t *testing.T) {
	p := newFakeProvider(10)
	p.failPages = map[int]error{0: &provider.FetchError{Query: "coffee", StatusCode: 500}}
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	assert.Empty(t, c.Acquire(ctx, "coffee", 3))
	_, ok := c.Stats("coffee")
	assert.False(t, ok, "a failed first page must not create an entry")

	assert.Equal(t, []string{"0", "1", "2"}, ids(c.Acquire(ctx, "coffee", 3)))
	assert.Equal(t, 2, p.callCount())
}

func TestQueryResultCache_LaterPageFailureLoops(t *testing.T) {
	p := newFakeProvider(10)
	p.failPages = map[int]error{1: &provider.FetchError{Query: "coffee", StatusCode: 503}}
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	c.Acquire(ctx, "coffee", 3)
	c.Acquire(ctx, "coffee", 3)
	got := c.Acquire(ctx, "coffee", 3)

	assert.Equal(t, []string{"0", "1", "2"}, ids(got))
	stats, _ := c.Stats("coffee")
	assert.True(t, stats.Exhausted)
	assert.True(t, stats.HasMore, "token is kept so a later call can try again")
}

func TestQueryResultCache_ReturnsDistinctIDs(t *testing.T) {
	p := newFakeProvider(5)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		got := c.Acquire(ctx, "coffee", 3)
		seen := map[string]bool{}
		for _, photo := range got {
			assert.False(t, seen[photo.ID], "duplicate id %s in call %d", photo.ID, i)
			seen[photo.ID] = true
		}
	}
}

func TestQueryResultCache_ClampsShortTail(t *testing.T) {
	p := newFakeProvider(5)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))

	got := c.Acquire(context.Background(), "coffee", 10)
	assert.Len(t, got, 5)
}

func TestQueryResultCache_KeyTrimmedCasePreserved(t *testing.T) {
	p := newFakeProvider(10)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	c.Acquire(ctx, "  Coffee  ", 2)
	c.Acquire(ctx, "Coffee", 2)
	c.Acquire(ctx, "coffee", 2)

	require.Len(t, p.calls, 2)
	assert.Equal(t, "Coffee", p.calls[0].Query)
	assert.Equal(t, "coffee", p.calls[1].Query)

	stats, ok := c.Stats("Coffee")
	require.True(t, ok)
	assert.Equal(t, 4, stats.Cursor)
}

func TestQueryResultCache_Reset(t *testing.T) {
	p := newFakeProvider(10)
	c := NewQueryResultCache(p, WithShuffle(noShuffle))
	ctx := context.Background()

	c.Acquire(ctx, "coffee", 2)
	c.Reset()
	_, ok := c.Stats("coffee")
	assert.False(t, ok)

	assert.Equal(t, []string{"0", "1"}, ids(c.Acquire(ctx, "coffee", 2)))
	assert.Equal(t, 2, p.callCount())
}

func TestQueryResultCache_NonPositiveCount(t *testing.T) {
	p := newFakeProvider(10)
	c := NewQueryResultCache(p)

	assert.Nil(t, c.Acquire(context.Background(), "coffee", 0))
	assert.Equal(t, 0, p.callCount())
}
