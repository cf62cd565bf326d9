package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const scanBatch = 200

// RedisStore 远端层
// 每次操作带超时并经过熔断器；熔断打开期间直接返回 ErrRemoteUnavailable，不再访问网络
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker[any]
	logger    *logger.CtxZapLogger
}

// BreakerConfig 远端熔断配置
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"` // 连续失败次数触发打开
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`      // 打开后多久进入半开
	HalfOpenRequests uint32        `mapstructure:"half_open_requests"`
}

// NewRedisStore keyPrefix 隔离本服务的 key（Clear 只清理该前缀）
func NewRedisStore(client redis.UniversalClient, keyPrefix string, timeout time.Duration, bc BreakerConfig, log *logger.CtxZapLogger) *RedisStore {
	if log == nil {
		log = logger.GetLogger("cache")
	}
	s := &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   timeout,
		logger:    log,
	}
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "cache-remote",
		MaxRequests: bc.HalfOpenRequests,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("remote cache breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

func (s *RedisStore) Name() string {
	return "remote"
}

func (s *RedisStore) fullKey(key string) string {
	return s.keyPrefix + key
}

// BreakerState 熔断器状态（closed / half-open / open）
func (s *RedisStore) BreakerState() string {
	return s.breaker.State().String()
}

// execute 在超时与熔断保护下执行；redis.Nil 不计为失败
func (s *RedisStore) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var miss bool
	_, err := s.breaker.Execute(func() (any, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := fn(opCtx)
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil, nil
		}
		return nil, err
	})
	switch {
	case err != nil:
		return ErrRemoteUnavailable.Wrap(err)
	case miss:
		return ErrCacheMiss
	}
	return nil
}

// Get GET + PTTL 一次往返
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	var (
		value []byte
		ttl   time.Duration
	)
	err := s.execute(ctx, func(ctx context.Context) error {
		full := s.fullKey(key)
		pipe := s.client.Pipeline()
		getCmd := pipe.Get(ctx, full)
		ttlCmd := pipe.PTTL(ctx, full)
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		b, err := getCmd.Bytes()
		if err != nil {
			return err
		}
		value = b
		ttl = ttlCmd.Val()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return value, ttl, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	return s.execute(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, s.fullKey(key), value, ttl).Err()
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.execute(ctx, func(ctx context.Context) error {
		return s.client.Unlink(ctx, s.fullKey(key)).Err()
	})
}

// DeleteByPattern SCAN MATCH <prefix>*<pattern>* 后分批 UNLINK
func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return s.deleteMatching(ctx, s.keyPrefix+"*"+escapeGlob(pattern)+"*")
}

// Clear 只清理本服务前缀下的 key
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.deleteMatching(ctx, escapeGlob(s.keyPrefix)+"*")
}

func (s *RedisStore) deleteMatching(ctx context.Context, match string) error {
	return s.execute(ctx, func(ctx context.Context) error {
		return s.forEachNode(ctx, func(ctx context.Context, c redis.UniversalClient) error {
			iter := c.Scan(ctx, 0, match, scanBatch).Iterator()
			batch := make([]string, 0, scanBatch)
			for iter.Next(ctx) {
				batch = append(batch, iter.Val())
				if len(batch) == scanBatch {
					if err := unlinkBatch(ctx, c, batch); err != nil {
						return err
					}
					batch = batch[:0]
				}
			}
			if err := iter.Err(); err != nil {
				return err
			}
			return unlinkBatch(ctx, c, batch)
		})
	})
}

// unlinkBatch 逐 key 流水线删除，集群下不同 slot 的 key 不能合并到一条命令
func unlinkBatch(ctx context.Context, c redis.UniversalClient, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Unlink(ctx, k)
		}
		return nil
	})
	return err
}

// forEachNode 集群模式下 SCAN 需要逐个主节点执行
func (s *RedisStore) forEachNode(ctx context.Context, fn func(ctx context.Context, c redis.UniversalClient) error) error {
	if cc, ok := s.client.(*redis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return fn(ctx, node)
		})
	}
	return fn(ctx, s.client)
}

// Close 客户端由 redis.Manager 管理
func (s *RedisStore) Close() error {
	return nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
