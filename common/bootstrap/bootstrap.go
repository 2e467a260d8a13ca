package bootstrap

import (
	"context"
	"fmt"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/db"
	"github.com/framewell/tracker/common/logger"
	redisc "github.com/framewell/tracker/common/redis"
	"github.com/framewell/tracker/fieldedit"
	"github.com/framewell/tracker/linkmut"
	"github.com/framewell/tracker/relstore"
	"github.com/framewell/tracker/repository"
)

// Setup initializes all tracker components: config, logger, database,
// repository, the relationship store with its invalidation bus, the link
// service and the field-edit machinery. This is the entry point for every
// process embedding the tracker core.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing tracker",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Data-access collaborator: the postgres repository, unless the
	// caller injected a client (tests pass the fake here)
	if options.client != nil {
		components.Client = options.client
	} else if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func() error {
			components.DB.Close()
			return nil
		})

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}

		components.Client = repository.New(components.DB, components.Logger)
	} else {
		return nil, fmt.Errorf("no data-access client: database skipped and none injected")
	}

	// 4. Relationship store
	components.Store = relstore.New(components.Client, components.Config.Store, components.Logger)

	// 5. Invalidation bus (if events are enabled)
	if !options.skipEvents && components.Config.Events.Enabled && components.Config.Features.EnableEventBus {
		components.Logger.Info("connecting to redis", "addr", components.Config.Events.Addr)
		components.Redis, err = redisc.Dial(ctx, components.Config.Events, components.Logger)
		if err != nil {
			components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		components.addCleanup(func() error {
			return components.Redis.Close()
		})

		components.Bus = relstore.NewBus(components.Redis, components.Config.Events.ChannelPrefix, components.Logger)
		components.Store.AttachBus(components.Bus)

		busCtx, stopBus := context.WithCancel(context.Background())
		busDone := make(chan struct{})
		go func() {
			defer close(busDone)
			if err := components.Bus.Start(busCtx, components.Store); err != nil {
				components.Logger.Error("invalidation bus stopped", "error", err)
			}
		}()
		components.addCleanup(func() error {
			stopBus()
			<-busDone
			return nil
		})
	}

	// 6. Link mutation service and field-edit machinery
	components.Links = linkmut.New(components.Client, components.Store, components.Config.Features.StrictLinkConflicts, components.Logger)

	if components.Config.Features.EnableFieldRules {
		components.Rules, err = fieldedit.DefaultRules()
	} else {
		components.Rules, err = fieldedit.NewRules(nil)
	}
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build field rules: %w", err)
	}

	components.Deletes = fieldedit.NewDeleter(components.Client, components.Store, components.Logger)

	components.Logger.Info("tracker initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"events", components.Bus != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
