package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/dataaccess"
)

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Name:      "tracker-test",
			LogLevel:  "error",
			LogFormat: "text",
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			MaxConns: 4,
			MinConns: 1,
		},
		Events: config.EventsConfig{
			Enabled:       false,
			ChannelPrefix: "tracker:inval",
		},
		Store: config.StoreConfig{
			MaxEntries:     64,
			RefreshTimeout: 5 * time.Second,
		},
		Features: config.FeatureFlags{
			EnableFieldRules: true,
		},
	}
}

func TestSetup_WithInjectedClient(t *testing.T) {
	ctx := context.Background()

	fake := dataaccess.NewFake()
	components, err := Setup(ctx, "tracker-test",
		WithoutDB(),
		WithClient(fake),
		WithCustomConfig(testConfig()),
	)
	require.NoError(t, err)
	defer components.Shutdown(ctx)

	assert.Same(t, dataaccess.Client(fake), components.Client)
	assert.NotNil(t, components.Store)
	assert.NotNil(t, components.Links)
	assert.NotNil(t, components.Rules)
	assert.NotNil(t, components.Deletes)
	assert.Nil(t, components.DB)
	assert.Nil(t, components.Bus)

	assert.NoError(t, components.Health(ctx))
}

func TestSetup_SkipDBWithoutClientFails(t *testing.T) {
	_, err := Setup(context.Background(), "tracker-test",
		WithoutDB(),
		WithCustomConfig(testConfig()),
	)
	require.Error(t, err)
}

func TestSetup_FieldRulesDisabled(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Features.EnableFieldRules = false

	components, err := Setup(ctx, "tracker-test",
		WithoutDB(),
		WithClient(dataaccess.NewFake()),
		WithCustomConfig(cfg),
	)
	require.NoError(t, err)
	defer components.Shutdown(ctx)

	// Without the default rules, any value passes validation
	assert.NoError(t, components.Rules.Validate("name", ""))
}
