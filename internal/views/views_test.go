package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/pipeline"
)

const (
	videoID  = "7b0f9e3e-64a1-4b52-9a11-0c8e1fbd5a01"
	viewerID = "3c1d2e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	ownerID  = "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

var readOnlyTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func TestVideoCommentsComposesOwnerAndLikes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBeginTx(readOnlyTx)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM videos WHERE id = \$1\)`).
		WithArgs(videoID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments c`).
		WithArgs(viewerID, videoID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT c.id, c.content, c.created_at, lk.likes_count, lk.is_liked, u.id AS owner_id`).
		WithArgs(viewerID, videoID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "content", "created_at", "likes_count", "is_liked",
			"owner_id", "owner_username", "owner_full_name", "owner_avatar",
		}).AddRow("comment-1", "first!", created, int64(2), true, ownerID, "alice", "Alice", "a.png"))
	mock.ExpectCommit()

	res, err := New(mock).VideoComments(context.Background(), videoID, viewerID, pipeline.Page{})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	got := res.Items[0]
	assert.Equal(t, "first!", got.Content)
	assert.Equal(t, int64(2), got.LikesCount)
	assert.True(t, got.IsLiked)
	assert.Equal(t, "alice", got.Owner.Username)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, pipeline.DefaultLimit, res.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCommentsMissingVideo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readOnlyTx)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(videoID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err = New(mock).VideoComments(context.Background(), videoID, "", pipeline.Page{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCommentsRejectsMalformedID(t *testing.T) {
	_, err := New(nil).VideoComments(context.Background(), "not-an-id", "", pipeline.Page{})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestVideoCommentsAnonymousViewerBindsNull(t *testing.T) {
	q, err := videoCommentsPlan(videoID, "").Items(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, videoID}, q.Args)
	assert.Contains(t, q.SQL, "ORDER BY c.created_at ASC, c.id ASC")
}

func TestChannelStatsIsOneStatementCoveringAllLikeTargets(t *testing.T) {
	q, err := channelStatsPlan(ownerID).Items(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(q.SQL, "SELECT u.id AS user_id"))
	for _, fragment := range []string{
		"COALESCE(SUM(v.views), 0)::BIGINT AS total_views",
		"FROM subscriptions s WHERE s.channel_id = u.id",
		"lv.owner_id = u.id OR lc.owner_id = u.id OR lt.owner_id = u.id",
	} {
		assert.Contains(t, q.SQL, fragment)
	}
	assert.Equal(t, []any{ownerID}, q.Args)
}

func TestChannelStatsMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT u.id AS user_id`).
		WithArgs(ownerID).
		WillReturnError(pgx.ErrNoRows)

	_, err = New(mock).ChannelStats(context.Background(), ownerID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestChannelProfileValidation(t *testing.T) {
	_, err := New(nil).ChannelProfile(context.Background(), "   ", "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	q, err := channelProfilePlan("alice", viewerID).Items(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{viewerID, "alice"}, q.Args)
}

func TestWatchHistoryAndLikedVideosRequireViewer(t *testing.T) {
	svc := New(nil)
	_, err := svc.WatchHistory(context.Background(), "")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	_, err = svc.LikedVideos(context.Background(), "")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestLikedVideosPlanOrdersByLikeTime(t *testing.T) {
	q, err := likedVideosPlan(viewerID).Items(nil)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "l.video_id IS NOT NULL")
	assert.Contains(t, q.SQL, "ORDER BY l.created_at DESC, l.id DESC")
}

func TestChannelVideosIncludesUnpublished(t *testing.T) {
	_, err := New(nil).ChannelVideos(context.Background(), "", pipeline.Page{})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	q, err := channelVideosPlan(ownerID).Items(nil)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "is_published =")
	assert.Contains(t, q.SQL, "l.video_id = v.id")
	assert.Contains(t, q.SQL, "ORDER BY v.created_at DESC, v.id DESC")
	assert.Equal(t, []any{ownerID}, q.Args)
}

func TestVideoFilterPlan(t *testing.T) {
	t.Run("defaults to newest published", func(t *testing.T) {
		plan, err := VideoFilter{}.plan()
		require.NoError(t, err)
		q, err := plan.Items(nil)
		require.NoError(t, err)
		assert.Contains(t, q.SQL, "v.is_published = $1")
		assert.Contains(t, q.SQL, "ORDER BY v.created_at DESC, v.id DESC")
	})

	t.Run("owner sees unpublished", func(t *testing.T) {
		plan, err := VideoFilter{UserID: ownerID, ViewerID: ownerID, SortBy: "views", SortType: "asc"}.plan()
		require.NoError(t, err)
		q, err := plan.Items(nil)
		require.NoError(t, err)
		assert.NotContains(t, q.SQL, "is_published =")
		assert.Contains(t, q.SQL, "ORDER BY v.views ASC, v.id ASC")
	})

	t.Run("query escapes wildcards", func(t *testing.T) {
		plan, err := VideoFilter{Query: "100%"}.plan()
		require.NoError(t, err)
		q, err := plan.Items(nil)
		require.NoError(t, err)
		assert.Contains(t, q.SQL, "ILIKE")
		assert.Contains(t, q.Args, `%100\%%`)
	})

	for name, filter := range map[string]VideoFilter{
		"sortBy":   {SortBy: "password"},
		"sortType": {SortType: "sideways"},
		"userId":   {UserID: "nope"},
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := filter.plan()
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		})
	}
}
