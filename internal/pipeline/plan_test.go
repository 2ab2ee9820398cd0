package pipeline

import (
	"fmt"
	"math"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentsPlan() *Plan {
	return From("comments c", "c.id").
		Match(sq.Eq{"c.video_id": "video-1"}).
		JoinOne("users u", "u.id = c.owner_id").
		JoinMany("lk", "likes l", "l.comment_id = c.id",
			Count("likes_count"),
			AnyMatch("is_liked", "l.liked_by = ?", "viewer-1"),
		).
		Project("c.id", "c.content").
		Derive("likes_count", "lk.likes_count").
		Sort("c.created_at ASC")
}

func TestPlanItemsCompilesStagesInOrder(t *testing.T) {
	q, err := commentsPlan().Items(&Page{Number: 2, Limit: 5})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.SQL, "SELECT c.id, c.content, lk.likes_count AS likes_count FROM comments c"), q.SQL)
	assert.Contains(t, q.SQL, "LEFT JOIN users u ON u.id = c.owner_id")
	assert.Contains(t, q.SQL, "LEFT JOIN LATERAL (SELECT COUNT(*) AS likes_count, COALESCE(BOOL_OR(l.liked_by = $1), FALSE) AS is_liked FROM likes l WHERE l.comment_id = c.id) AS lk ON TRUE")
	assert.Contains(t, q.SQL, "WHERE c.video_id = $2")
	assert.Contains(t, q.SQL, "ORDER BY c.created_at ASC, c.id ASC")
	assert.Contains(t, q.SQL, "LIMIT 5")
	assert.Contains(t, q.SQL, "OFFSET 5")
	assert.Less(t, strings.Index(q.SQL, "LATERAL"), strings.Index(q.SQL, "WHERE c.video_id"))
	assert.Equal(t, []any{"viewer-1", "video-1"}, q.Args)
}

func TestPlanCountIgnoresProjectionAndSort(t *testing.T) {
	q, err := commentsPlan().Count()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.SQL, "SELECT COUNT(*) FROM comments c"), q.SQL)
	assert.NotContains(t, q.SQL, "ORDER BY")
	assert.NotContains(t, q.SQL, "LIMIT")
	assert.Equal(t, []any{"viewer-1", "video-1"}, q.Args)
}

func TestPlanSortAlwaysEndsWithKey(t *testing.T) {
	cases := []struct {
		name  string
		sorts []string
		want  string
	}{
		{"noSort", nil, "ORDER BY v.id ASC"},
		{"descending", []string{"v.created_at DESC"}, "ORDER BY v.created_at DESC, v.id DESC"},
		{"keyAlreadyPresent", []string{"v.id DESC"}, "ORDER BY v.id DESC"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := From("videos v", "v.id").Project("v.id").Sort(tc.sorts...).Items(nil)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(q.SQL, tc.want), q.SQL)
		})
	}
}

func TestPlanErrors(t *testing.T) {
	_, err := From("", "").Project("x").Items(nil)
	assert.Error(t, err)

	_, err = From("videos v", "v.id").Items(nil)
	assert.Error(t, err)

	_, err = From("videos v", "v.id").JoinMany("x", "likes l", "true").Project("v.id").Count()
	assert.Error(t, err)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Limit: 10}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 1, Limit: 10}, Page{Number: -3, Limit: 0}.Normalize())
	assert.Equal(t, Page{Number: 4, Limit: 100}, Page{Number: 4, Limit: 1000}.Normalize())
	assert.Equal(t, 30, Page{Number: 4, Limit: 10}.Offset())
}

func TestPageOffsetSaturates(t *testing.T) {
	huge := Page{Number: math.MaxInt / 5, Limit: 10}
	assert.Equal(t, math.MaxInt, huge.Offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt, Limit: 100}.Offset())
	assert.Equal(t, math.MaxInt-math.MaxInt%100-100, Page{Number: math.MaxInt / 100, Limit: 100}.Offset())

	q, err := commentsPlan().Items(&huge)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, fmt.Sprintf("LIMIT 10 OFFSET %d", math.MaxInt))
}

func TestNewResultTotals(t *testing.T) {
	for size := 0; size <= 23; size++ {
		for limit := 1; limit <= 7; limit++ {
			res := NewResult([]int{}, int64(size), Page{Number: 1, Limit: limit})
			want := (size + limit - 1) / limit
			assert.Equal(t, want, res.TotalPages, "size=%d limit=%d", size, limit)
		}
	}

	res := NewResult[int](nil, 0, Page{})
	assert.NotNil(t, res.Items)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, 10, res.Limit)
}
