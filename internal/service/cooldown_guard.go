package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/observability"
)

// DefaultSubmitCooldown is the window during which a caller may not submit again.
const DefaultSubmitCooldown = 20 * time.Second

const submitCooldownPrefix = "submit_cooldown:"

// ErrCooldownIdentityRequired indicates an empty caller identity.
var ErrCooldownIdentityRequired = errors.New("cooldown identity is required")

// CooldownGuard rate limits submissions per identity.
type CooldownGuard interface {
	TryAcquire(ctx context.Context, identity string) (bool, error)
	RetryAfter(ctx context.Context, identity string) (time.Duration, error)
}

type redisCooldownGuard struct {
	client *redis.Client
	window time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewCooldownGuard builds a cooldown guard backed by Redis.
func NewCooldownGuard(client *redis.Client, window time.Duration, logger zerolog.Logger) CooldownGuard {
	if window <= 0 {
		window = DefaultSubmitCooldown
	}

	return &redisCooldownGuard{
		client: client,
		window: window,
		logger: logger.With().Str("component", "cooldown_guard").Logger(),
		now:    time.Now,
	}
}

// TryAcquire claims the cooldown slot for identity. It reports false while a
// previous claim is still live. The key expires on its own.
func (g *redisCooldownGuard) TryAcquire(ctx context.Context, identity string) (bool, error) {
	key, err := cooldownKey(identity)
	if err != nil {
		return false, err
	}

	acquired, err := g.client.SetNX(ctx, key, g.now().UTC().Unix(), g.window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submit cooldown: %w", err)
	}

	if !acquired {
		observability.CooldownRejections().Inc()
		g.logger.Debug().Str("identity", identity).Msg("submission rejected by cooldown")
	}

	return acquired, nil
}

// RetryAfter reports how long identity must wait before its next submission.
func (g *redisCooldownGuard) RetryAfter(ctx context.Context, identity string) (time.Duration, error) {
	key, err := cooldownKey(identity)
	if err != nil {
		return 0, err
	}

	ttl, err := g.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("read submit cooldown: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func cooldownKey(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", ErrCooldownIdentityRequired
	}
	return submitCooldownPrefix + identity, nil
}
