package auth

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/blacklist"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/refresh"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/reset"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/session"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/throttle"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/token"
)

// Builder assembles an Engine. Configure it during initialization and
// call Build once; the resulting Engine is safe for concurrent use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  UserStore
	hasher Hasher
	logger zerolog.Logger

	haveLogger bool
	built      bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client shared by every store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the external credential store.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithHasher sets the password hasher. Defaults to bcrypt at cost 12.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithLogger sets the engine logger. Defaults to a disabled logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.haveLogger = true
	return b
}

// Build validates the configuration and dependencies and constructs the
// Engine. A Builder may only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrEngineNotReady)
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store is required", ErrEngineNotReady)
	}

	b.config.applyDefaults()
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	codec, err := token.NewCodec(token.Config{
		Secret:    []byte(b.config.Token.Secret),
		Algorithm: b.config.Token.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	hasher := b.hasher
	if hasher == nil {
		hasher = defaultHasher()
	}
	logger := b.logger
	if !b.haveLogger {
		logger = zerolog.Nop()
	}

	prefix := b.config.Store.Prefix
	timeout := b.config.Store.OpTimeout

	eng := &Engine{
		config:    b.config,
		logger:    logger,
		redis:     b.redis,
		users:     b.users,
		hasher:    hasher,
		codec:     codec,
		blacklist: blacklist.New(b.redis, prefix+":blacklist", timeout),
		sessions: session.NewRegistry(
			b.redis, prefix+":session", b.config.Session.TouchCeiling, timeout),
		refreshes: refresh.NewTracker(b.redis, prefix+":refresh:used", timeout),
		throttle: throttle.New(b.redis, prefix+":login:attempts", throttle.Config{
			MaxAttempts: b.config.Throttle.MaxAttempts,
			Window:      b.config.Throttle.LockoutWindow,
		}, timeout),
		resets:  reset.NewStore(b.redis, prefix+":reset", timeout),
		metrics: NewMetrics(),
	}

	b.built = true
	return eng, nil
}
