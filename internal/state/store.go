package state

import (
	"context"
	"time"
)

// TTL sentinel values, matching the shared store's convention.
const (
	// TTLNone means the key exists but has no expiry.
	TTLNone = time.Duration(-1)
	// TTLMissing means the key does not exist (or has already expired).
	TTLMissing = time.Duration(-2)
)

// Store defines the operations shared by the in-process store, the
// shared store client, and the facade that arbitrates between them.
// Values are opaque strings; callers encode structured values (the
// circuit breaker stores JSON) before writing.
type Store interface {
	// Get returns the value for key. found is false if the key is
	// absent or past its expiry.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set overwrites key unconditionally. A ttl > 0 sets an expiry;
	// ttl <= 0 stores the value without one.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes key. Absence is not an error.
	Del(ctx context.Context, key string) error

	// Incr adds one to the numeric value at key (0 if absent) and
	// returns the result. It never touches the key's expiry.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets or replaces the expiry of an existing key. It is a
	// no-op if the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining lifetime of key, TTLNone if the key
	// has no expiry, or TTLMissing if the key is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Pipeline executes a batch of commands, one result per command
	// in order.
	Pipeline(ctx context.Context, cmds []Command) ([]CommandResult, error)
}

// CommandKind identifies a pipeline command. The set is closed:
// pipelines support exactly the operations the facade exposes.
type CommandKind int

const (
	CommandGet CommandKind = iota
	CommandSet
	CommandDel
	CommandIncr
	CommandExpire
)

// String returns the command name as the shared store spells it.
func (k CommandKind) String() string {
	switch k {
	case CommandGet:
		return "GET"
	case CommandSet:
		return "SET"
	case CommandDel:
		return "DEL"
	case CommandIncr:
		return "INCR"
	case CommandExpire:
		return "EXPIRE"
	default:
		return "UNKNOWN"
	}
}

// Command is one entry in a pipeline batch. Value is used by Set;
// TTL is used by Set and Expire.
type Command struct {
	Kind  CommandKind
	Key   string
	Value string
	TTL   time.Duration
}

// CommandResult is the outcome of a single pipeline command.
// Value/Found are populated for Get, Count for Incr.
type CommandResult struct {
	Value string
	Found bool
	Count int64
}
