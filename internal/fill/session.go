package fill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/redis/go-redis/v9"
)

// State 是填号会话的状态。
type State string

const (
	StateChoosingMethod State = "choosing_method"
	StateManualEntry    State = "manual_entry"
	StateSubmitted      State = "submitted"
	StateSettled        State = "settled"
	StateRejected       State = "rejected"
)

// Method tags how the numbers were chosen.
type Method string

const (
	MethodAuto   Method = "auto"
	MethodManual Method = "manual"
)

// Session is one interactive fill attempt of a chat. At most one exists per chat.
type Session struct {
	ID        string          `json:"id"`
	ChatID    int64           `json:"chatId"`
	UserID    uint            `json:"userId"`
	State     State           `json:"state"`
	Method    Method          `json:"method,omitempty"`
	Numbers   lottery.Numbers `json:"numbers,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

var (
	ErrNoSession         = errors.New("no fill session")
	ErrSessionMismatch   = errors.New("fill session was replaced")
	ErrSessionBusy       = errors.New("fill session is being updated concurrently")
	ErrInvalidTransition = errors.New("operation not allowed in the current session state")
)

// SessionStore keeps sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, chatID int64) (*Session, error)
	// Update applies fn to the stored session atomically. fn may return an
	// error to abort without writing.
	Update(ctx context.Context, chatID int64, sessionID string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, chatID int64) error
}

// --- Redis 实现 ---

const sessionKeyPrefix = "fill:session:"

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

// RedisSessionStore 把会话以 JSON 的形式存放在 Redis 中，并带有过期时间。
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cannot save fill session of chat %d: %w", sess.ChatID, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	return s.get(ctx, s.rdb, chatID)
}

func (s *RedisSessionStore) get(ctx context.Context, c redis.Cmdable, chatID int64) (*Session, error) {
	data, err := c.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("cannot load fill session of chat %d: %w", chatID, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("corrupt fill session of chat %d: %w", chatID, err)
	}
	return &sess, nil
}

// Update 使用 WATCH 实现乐观锁：在读取和写入之间若会话被其他请求修改，返回 ErrSessionBusy。
func (s *RedisSessionStore) Update(ctx context.Context, chatID int64, sessionID string, fn func(*Session) error) (*Session, error) {
	key := sessionKey(chatID)
	var updated *Session

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		sess, err := s.get(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if sess.ID != sessionID {
			return ErrSessionMismatch
		}
		if err := fn(sess); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = sess
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrSessionBusy
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, chatID int64) error {
	return s.rdb.Del(ctx, sessionKey(chatID)).Err()
}
