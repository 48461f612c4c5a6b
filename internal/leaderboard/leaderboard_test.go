package leaderboard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func testBoard(t *testing.T) *Board {
	srv := miniredis.RunT(t)
	board := NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() {
		board.Close()
	})
	return board
}

func TestAwardAndTop(t *testing.T) {
	board := testBoard(t)
	ctx := context.Background()

	assert.NoError(t, board.Award(ctx, 1, 0, 100))
	assert.NoError(t, board.Award(ctx, 2, 0, 250))
	assert.NoError(t, board.Award(ctx, 3, 0, 50))
	assert.NoError(t, board.Award(ctx, 1, 0, 25))

	top, err := board.Top(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, []Entry{
		{Rank: 1, UserID: 2, Points: 250},
		{Rank: 2, UserID: 1, Points: 125},
		{Rank: 3, UserID: 3, Points: 50},
	}, top)
}

func TestTopLimitsResults(t *testing.T) {
	board := testBoard(t)
	ctx := context.Background()

	for id := 1; id <= 5; id++ {
		assert.NoError(t, board.Award(ctx, id, 0, id*10))
	}

	top, err := board.Top(ctx, 2)
	assert.NoError(t, err)
	assert.Len(t, top, 2)
	assert.Equal(t, 5, top[0].UserID)
}

func TestCourseBoardIsSeparate(t *testing.T) {
	board := testBoard(t)
	ctx := context.Background()

	assert.NoError(t, board.Award(ctx, 1, 7, 100))
	assert.NoError(t, board.Award(ctx, 2, 8, 200))

	top, err := board.TopForCourse(ctx, 7, 10)
	assert.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, 1, top[0].UserID)

	global, err := board.Top(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, global, 2)
}

func TestRank(t *testing.T) {
	board := testBoard(t)
	ctx := context.Background()

	assert.NoError(t, board.Award(ctx, 1, 0, 100))
	assert.NoError(t, board.Award(ctx, 2, 0, 200))

	rank, err := board.Rank(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, rank)

	rank, err = board.Rank(ctx, 99)
	assert.NoError(t, err)
	assert.Equal(t, 0, rank)
}
