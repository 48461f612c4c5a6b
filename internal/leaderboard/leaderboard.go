package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const globalKey = "leaderboard:global"

func courseKey(courseID int) string {
	return fmt.Sprintf("leaderboard:course:%d", courseID)
}

// Entry is one row of a points ranking, user id plus score.
type Entry struct {
	Rank   int `json:"rank"`
	UserID int `json:"user_id"`
	Points int `json:"points"`
}

// Board keeps XP rankings in Redis sorted sets, one global set and one
// per course.
type Board struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(addr, password string, db int) (*Board, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Board{client: client}, nil
}

// NewWithClient wraps an existing Redis client; used by tests.
func NewWithClient(client *redis.Client) *Board {
	return &Board{client: client}
}

func (b *Board) Close() error {
	return b.client.Close()
}

// Award adds points to the user's global score, and to the course score
// when courseID is non-zero.
func (b *Board) Award(ctx context.Context, userID, courseID, points int) error {
	member := strconv.Itoa(userID)
	if err := b.client.ZIncrBy(ctx, globalKey, float64(points), member).Err(); err != nil {
		return fmt.Errorf("incrementing global score: %w", err)
	}
	if courseID != 0 {
		if err := b.client.ZIncrBy(ctx, courseKey(courseID), float64(points), member).Err(); err != nil {
			return fmt.Errorf("incrementing course score: %w", err)
		}
	}

	return nil
}

// Top returns the highest-scored entries of the global board.
func (b *Board) Top(ctx context.Context, n int) ([]Entry, error) {
	return b.top(ctx, globalKey, n)
}

// TopForCourse returns the highest-scored entries for one course.
func (b *Board) TopForCourse(ctx context.Context, courseID, n int) ([]Entry, error) {
	return b.top(ctx, courseKey(courseID), n)
}

func (b *Board) top(ctx context.Context, key string, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	scores, err := b.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for i, z := range scores {
		userID, err := strconv.Atoi(fmt.Sprint(z.Member))
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Rank: i + 1, UserID: userID, Points: int(z.Score)})
	}

	return entries, nil
}

// Rank returns the user's 1-based global rank, or 0 when the user has
// no score yet.
func (b *Board) Rank(ctx context.Context, userID int) (int, error) {
	rank, err := b.client.ZRevRank(ctx, globalKey, strconv.Itoa(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading rank: %w", err)
	}

	return int(rank) + 1, nil
}
