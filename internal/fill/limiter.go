package fill

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// submitKeyPrefix 是Redis中记录每个聊天提交时间的有序集合的键名前缀
const submitKeyPrefix = "fill:submits:"

// SubmitLimiter 以滑动窗口限制每个聊天的提交次数，防止反复向外部系统发起填号请求。
type SubmitLimiter struct {
	rdb    *redis.Client
	window time.Duration
	max    int64
}

// NewSubmitLimiter allows max submissions per chat within window.
func NewSubmitLimiter(rdb *redis.Client, max int, window time.Duration) *SubmitLimiter {
	return &SubmitLimiter{rdb: rdb, window: window, max: int64(max)}
}

// Allow records one submission attempt at now. An attempt over the limit is
// not counted against the window.
func (l *SubmitLimiter) Allow(ctx context.Context, chatID int64, now time.Time) (bool, error) {
	key := submitKeyPrefix + strconv.FormatInt(chatID, 10)
	minScore := float64(now.Add(-l.window).UnixMicro())
	member := uuid.NewString()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", minScore))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(ctx, key, l.window+time.Minute)
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("cannot count submissions of chat %d: %w", chatID, err)
	}

	if countCmd.Val() > l.max {
		// 补偿：超限的尝试不计入窗口
		if err := l.rdb.ZRem(ctx, key, member).Err(); err != nil {
			return false, fmt.Errorf("cannot roll back submission count of chat %d: %w", chatID, err)
		}
		return false, nil
	}
	return true, nil
}
