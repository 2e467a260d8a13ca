package bootstrap

import (
	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/db"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/dataaccess"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB       bool
	skipEvents   bool
	customLogger *logger.Logger
	customConfig *config.Config
	client       dataaccess.Client
	dbInitHook   func(*db.DB) error
}

// WithoutDB skips database initialization. Requires WithClient.
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutEvents skips the redis invalidation bus
func WithoutEvents() Option {
	return func(o *options) {
		o.skipEvents = true
	}
}

// WithClient injects a data-access client instead of building the postgres
// repository. Tests pass the in-memory fake here.
func WithClient(client dataaccess.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithDBInitHook runs a custom function after DB initialization
// Useful for running migrations, seeding data, etc.
func WithDBInitHook(hook func(*db.DB) error) Option {
	return func(o *options) {
		o.dbInitHook = hook
	}
}

func defaultOptions() *options {
	return &options{}
}
