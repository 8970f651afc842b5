package container

// Options holds runtime configuration for both binaries. The shared
// store is configured by two values that must be present together;
// when either is missing the service runs in memory-only mode for its
// entire lifetime, which is a supported configuration, not an error.
type Options struct {
	Port int `default:"8888" help:"Port to listen on" short:"p"`

	StateStoreURL   string `help:"Shared state store endpoint URL (redis://host:port/db)"`
	StateStoreToken string `help:"Shared state store auth token"`

	DatabaseURL string `help:"Postgres URL for the transition history store (consumer only)"`

	LogFormat string `default:"console" enum:"console,json" help:"Log output format"`

	RecheckSeconds int `default:"30" help:"Seconds between shared store liveness re-checks"`
	SweepSeconds   int `default:"60" help:"Seconds between fallback store expiry sweeps"`

	DefaultLimit         int64 `default:"600" help:"Default API rate limit per window"`
	DefaultWindowSeconds int   `default:"60"  help:"Default API rate limit window in seconds"`
}
