package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sofia-scheduler/internal/booking"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	appconfig "github.com/wolfman30/sofia-scheduler/internal/config"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, true))
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Default(), true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
}

func TestBuildPostgresPoolDisabled(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), &appconfig.Config{})
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestLoadScheduleDefaults(t *testing.T) {
	schedule, err := LoadSchedule(context.Background(), &appconfig.Config{ClinicID: "praxis", ClinicTimezone: "UTC"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "praxis", schedule.ClinicID)
	assert.Equal(t, "UTC", schedule.Timezone)
	assert.NotEmpty(t, schedule.Hours.Monday)
	assert.Empty(t, schedule.Hours.Sunday)
}

func TestLoadScheduleFromRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := clinic.NewStore(rdb)

	stored := clinic.DefaultSchedule("praxis")
	stored.Closures = []clinic.Closure{{Date: "2025-12-24", Reason: "Heiligabend"}}
	require.NoError(t, store.Set(ctx, stored))

	schedule, err := LoadSchedule(ctx, &appconfig.Config{ClinicID: "praxis", ClinicTimezone: "UTC"}, store, nil)
	require.NoError(t, err)
	assert.Equal(t, clinic.DefaultTimezone, schedule.Timezone)
	require.Len(t, schedule.Closures, 1)
	assert.True(t, schedule.IsClosedDay(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)))
}

func TestLoadScheduleAppliesTimezoneWhenNothingStored(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	schedule, err := LoadSchedule(context.Background(), &appconfig.Config{ClinicID: "praxis", ClinicTimezone: "Europe/Rome"}, clinic.NewStore(rdb), nil)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", schedule.Timezone)
	assert.NotEmpty(t, schedule.Hours.Monday)
}

func TestBuildMirror(t *testing.T) {
	mirror, err := BuildMirror(&appconfig.Config{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, mirror.Publisher)
	assert.Nil(t, mirror.Worker)

	cfg := &appconfig.Config{CalendarBridgeURL: "http://calendar:3005", UseMemoryQueue: true, DefaultLocale: "de"}
	mirror, err = BuildMirror(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, mirror.Publisher)
	assert.NotNil(t, mirror.Worker)
	assert.NotNil(t, mirror.Client)

	cfg.UseMemoryQueue = false
	_, err = BuildMirror(cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestBuildEngine(t *testing.T) {
	schedule := clinic.DefaultSchedule("praxis")
	engine, err := BuildEngine(&appconfig.Config{SearchHorizonDays: 14}, EngineDeps{Schedule: schedule})
	require.NoError(t, err)
	require.NotNil(t, engine.Orchestrator)
	_, ok := engine.Sessions.(*booking.MemorySessionStore)
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	engine, err = BuildEngine(&appconfig.Config{}, EngineDeps{Schedule: schedule, Redis: rdb})
	require.NoError(t, err)
	_, ok = engine.Sessions.(*booking.RedisSessionStore)
	assert.True(t, ok)

	_, err = BuildEngine(&appconfig.Config{}, EngineDeps{})
	assert.Error(t, err)
}
