package engine

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
)

// Config holds the engine's tunables. Struct tags are validated with
// go-playground/validator.
type Config struct {
	// BatchSize is the number of resources folded into one commit batch.
	// Forced to 1 whenever Parallel is false: a serialized run's whole
	// point is that batches commit one at a time in iterator order, and a
	// multi-resource batch gets regrouped by label/key before it's written,
	// which would reorder resources within it even with a single worker.
	BatchSize int `validate:"gte=1" json:"batch_size"`

	// Workers is the number of concurrent conversion workers. Zero means
	// "use runtime.NumCPU()-2, floored at 1".
	Workers int `validate:"gte=0" json:"workers"`

	// Parallel disables the worker pool entirely when false, running
	// batches one at a time in iterator order ("serialized mode"), the only
	// mode that preserves the iterator's resource ordering end to end.
	Parallel bool `json:"parallel"`

	// MaxRetries and RetryDelay are validated and stored here only: the
	// engine does not hand them to its writer. A run's retries follow the
	// writer.RetryPolicy passed to writer.New.
	MaxRetries int           `validate:"gte=0" json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`

	// ProgressSink names the configured OpenTelemetry meter's instrumentation
	// scope for batch progress metrics (metrics.go), e.g. "data2neo.engine".
	ProgressSink string `json:"progress_sink"`
}

// ConfigError reports a Config that failed validation.
type ConfigError struct {
	Cause error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("engine: invalid configuration: %v", e.Cause) }
func (e *ConfigError) Unwrap() error { return e.Cause }

// Option mutates a Config under construction, following the functional-
// options idiom the rest of this module's packages use.
type Option func(*Config)

// WithBatchSize overrides the default batch size (5000). Has no effect on
// the final Config if Parallel ends up false: NewConfig/LoadConfigFile force
// BatchSize back to 1 in that case regardless of option order.
func WithBatchSize(n int) Option { return func(c *Config) { c.BatchSize = n } }

// WithWorkers overrides the default worker count.
func WithWorkers(n int) Option { return func(c *Config) { c.Workers = n } }

// WithParallel toggles serialized (false) vs. concurrent (true) batch
// processing.
func WithParallel(p bool) Option { return func(c *Config) { c.Parallel = p } }

// WithMaxRetries sets Config.MaxRetries. The engine does not pass it on to
// the writer, whose attempt count comes from the RetryPolicy given to
// writer.New.
func WithMaxRetries(n int) Option { return func(c *Config) { c.MaxRetries = n } }

// WithProgressSink names the meter scope progress metrics are recorded
// under.
func WithProgressSink(name string) Option { return func(c *Config) { c.ProgressSink = name } }

// defaultConfig returns the engine's documented defaults.
func defaultConfig() Config {
	return Config{
		BatchSize:    5000,
		Parallel:     true,
		MaxRetries:   5,
		RetryDelay:   200 * time.Millisecond,
		ProgressSink: "data2neo.engine",
	}
}

// NewConfig builds a validated Config from defaults plus opts.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	finalizeConfig(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	return cfg, nil
}

// defaultWorkerCount defaults to the number of CPUs minus two, floored at
// one, leaving headroom for the goroutines driving the iterator and writer.
func defaultWorkerCount() int {
	n := runtime.NumCPU() - 2
	if n < 1 {
		return 1
	}
	return n
}

// finalizeConfig fills in derived fields once every option or JSON field has
// been applied. Serialized mode (Parallel false) forces BatchSize to 1 so a
// single worker committing batches one at a time actually preserves iterator
// order end to end; a larger batch would still regroup its resources by
// label/key before writing, reordering them despite running serially.
func finalizeConfig(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkerCount()
	}
	if !cfg.Parallel {
		cfg.BatchSize = 1
	}
}

// LoadConfigFile parses a JSON-with-comments engine configuration file,
// applying it over the documented defaults.
func LoadConfigFile(data []byte) (Config, error) {
	cfg := defaultConfig()
	clean := jsonc.ToJSON(data)
	if err := json.Unmarshal(clean, &cfg); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	finalizeConfig(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	return cfg, nil
}
