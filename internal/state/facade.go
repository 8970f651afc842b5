package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode names the backing store currently serving requests.
const (
	ModeShared = "shared"
	ModeMemory = "memory"
)

// DefaultRecheckInterval is how long the facade waits after a failure
// before giving the shared store another chance.
const DefaultRecheckInterval = 30 * time.Second

// Status is a snapshot of the facade's backing store. Configured
// distinguishes a process that was never given a shared store from one
// that lost it: only the latter counts as degraded.
type Status struct {
	Available  bool   `json:"available"`
	Configured bool   `json:"configured"`
	Mode       string `json:"mode"`
	Instance   string `json:"instance"`
}

// TransitionFunc observes availability transitions. The facade calls
// it synchronously; implementations must be cheap and must not fail
// the operation that triggered the transition.
type TransitionFunc func(available bool, operation, reason string)

// Config carries the facade's construction parameters. URL and Token
// are the two shared-store secrets; if either is empty the facade runs
// in memory mode for its whole lifetime without error.
type Config struct {
	URL             string
	Token           string
	OpTimeout       time.Duration
	RecheckInterval time.Duration
	SweepInterval   time.Duration
	Instance        string
	Clock           Clock
	OnTransition    TransitionFunc
}

// Facade is the single entry point for ephemeral operational state.
// Every operation tries the shared store first and transparently falls
// back to the in-process store on any failure, remembering the failure
// so subsequent calls skip the remote attempt until the recheck
// interval elapses. Callers never see a storage error caused by the
// shared store being unreachable.
type Facade struct {
	remote       Store // nil when the shared store is not configured
	local        *MemoryStore
	clock        Clock
	logger       *zap.Logger
	recheck      time.Duration
	instance     string
	onTransition TransitionFunc

	mu        sync.Mutex
	available bool
	lastCheck time.Time
}

// NewFacade builds a facade from configuration. A missing or malformed
// shared-store URL/token is a supported condition, not an error: the
// facade logs once and serves everything from process memory.
func NewFacade(cfg Config, logger *zap.Logger) *Facade {
	var remote Store

	if cfg.URL == "" || cfg.Token == "" {
		logger.Info("shared store not configured, using in-process memory only")
	} else {
		client, err := NewRedisClient(cfg.URL, cfg.Token)
		if err != nil {
			logger.Error("invalid shared store configuration, using in-process memory only",
				zap.Error(err))
		} else {
			remote = NewRedisStore(client, cfg.OpTimeout)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	local := NewMemoryStoreWithClock(clock)
	local.StartSweep(cfg.SweepInterval)

	return NewFacadeWithStores(remote, local, cfg, logger)
}

// NewFacadeWithStores builds a facade over explicit stores. Tests use
// it to inject a failing remote or a manual clock.
func NewFacadeWithStores(remote Store, local *MemoryStore, cfg Config, logger *zap.Logger) *Facade {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	recheck := cfg.RecheckInterval
	if recheck <= 0 {
		recheck = DefaultRecheckInterval
	}

	return &Facade{
		remote:       remote,
		local:        local,
		clock:        clock,
		logger:       logger,
		recheck:      recheck,
		instance:     cfg.Instance,
		onTransition: cfg.OnTransition,
		available:    remote != nil,
	}
}

func (f *Facade) Get(ctx context.Context, key string) (string, bool, error) {
	if f.tryRemote() {
		value, found, err := f.remote.Get(ctx, key)
		if err == nil {
			return value, found, nil
		}

		f.fallback("get", err)
	}

	return f.local.Get(ctx, key)
}

func (f *Facade) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.tryRemote() {
		err := f.remote.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}

		f.fallback("set", err)
	}

	return f.local.Set(ctx, key, value, ttl)
}

func (f *Facade) Del(ctx context.Context, key string) error {
	if f.tryRemote() {
		err := f.remote.Del(ctx, key)
		if err == nil {
			return nil
		}

		f.fallback("del", err)
	}

	return f.local.Del(ctx, key)
}

func (f *Facade) Incr(ctx context.Context, key string) (int64, error) {
	if f.tryRemote() {
		count, err := f.remote.Incr(ctx, key)
		if err == nil {
			return count, nil
		}

		f.fallback("incr", err)
	}

	return f.local.Incr(ctx, key)
}

func (f *Facade) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if f.tryRemote() {
		err := f.remote.Expire(ctx, key, ttl)
		if err == nil {
			return nil
		}

		f.fallback("expire", err)
	}

	return f.local.Expire(ctx, key, ttl)
}

func (f *Facade) TTL(ctx context.Context, key string) (time.Duration, error) {
	if f.tryRemote() {
		ttl, err := f.remote.TTL(ctx, key)
		if err == nil {
			return ttl, nil
		}

		f.fallback("ttl", err)
	}

	return f.local.TTL(ctx, key)
}

func (f *Facade) Exists(ctx context.Context, key string) (bool, error) {
	if f.tryRemote() {
		found, err := f.remote.Exists(ctx, key)
		if err == nil {
			return found, nil
		}

		f.fallback("exists", err)
	}

	return f.local.Exists(ctx, key)
}

// Pipeline executes the batch against the shared store as a single
// atomic round trip when it is available. In fallback mode commands
// run sequentially against the memory store, so atomicity across the
// batch is not guaranteed while degraded.
func (f *Facade) Pipeline(ctx context.Context, cmds []Command) ([]CommandResult, error) {
	if f.tryRemote() {
		results, err := f.remote.Pipeline(ctx, cmds)
		if err == nil {
			return results, nil
		}

		f.fallback("pipeline", err)
	}

	return f.local.Pipeline(ctx, cmds)
}

// Status reports which backing store is serving requests.
func (f *Facade) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	available := f.remote != nil && f.available

	mode := ModeMemory
	if available {
		mode = ModeShared
	}

	return Status{
		Available:  available,
		Configured: f.remote != nil,
		Mode:       mode,
		Instance:   f.instance,
	}
}

// tryRemote reports whether the next operation should attempt the
// shared store. After a failure it stays false until the recheck
// interval has elapsed; then it optimistically flips back and lets the
// next real operation prove or disprove liveness.
func (f *Facade) tryRemote() bool {
	if f.remote == nil {
		return false
	}

	f.mu.Lock()

	if f.available {
		f.mu.Unlock()

		return true
	}

	now := f.clock.Now()
	if now.Sub(f.lastCheck) < f.recheck {
		f.mu.Unlock()

		return false
	}

	f.available = true
	f.lastCheck = now
	f.mu.Unlock()

	f.logger.Info("re-attempting shared store after recheck interval",
		zap.String("instance", f.instance))
	f.notify(true, "", "recheck interval elapsed")

	return true
}

// fallback records a shared-store failure so subsequent operations
// skip the remote attempt, and makes the degradation observable.
func (f *Facade) fallback(operation string, err error) {
	f.mu.Lock()

	wasAvailable := f.available
	f.available = false
	f.lastCheck = f.clock.Now()

	f.mu.Unlock()

	if !wasAvailable {
		return
	}

	f.logger.Error("shared store unreachable, falling back to in-process memory",
		zap.String("operation", operation),
		zap.String("instance", f.instance),
		zap.Error(err))
	f.notify(false, operation, err.Error())
}

func (f *Facade) notify(available bool, operation, reason string) {
	if f.onTransition != nil {
		f.onTransition(available, operation, reason)
	}
}

// Shutdown stops the background sweep and releases the shared-store
// client.
func (f *Facade) Shutdown() error {
	err := f.local.Shutdown()

	if closer, ok := f.remote.(interface{ Close() error }); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// Compile-time check.
var _ Store = (*Facade)(nil)
