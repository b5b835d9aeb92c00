package db

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asser-platform/internal/config"
)

func TestBuildConfigDefaults(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5432, User: "asser", Name: "asser"}

	pc, err := buildConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, defaultPoolSize, pc.MaxConns)
	assert.EqualValues(t, 2, pc.MinConns)
	assert.Equal(t, defaultConnectTimeout, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, defaultMaxConnLifetime, pc.MaxConnLifetime)
	assert.Equal(t, defaultMaxConnIdleTime, pc.MaxConnIdleTime)
	assert.Nil(t, pc.ConnConfig.Tracer)
	assert.Equal(t, "db", pc.ConnConfig.Host)
}

func TestBuildConfigOverrides(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:            "localhost",
		Port:            5433,
		User:            "u",
		Name:            "n",
		PoolSize:        3,
		ConnectTimeout:  time.Second,
		MaxConnLifetime: time.Minute,
		LogQueries:      true,
	}

	pc, err := buildConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 3, pc.MaxConns)
	assert.EqualValues(t, 1, pc.MinConns)
	assert.Equal(t, time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)
	assert.EqualValues(t, 5433, pc.ConnConfig.Port)
	assert.IsType(t, &tracelog.TraceLog{}, pc.ConnConfig.Tracer)
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	QueryLogger().Log(context.Background(), tracelog.LogLevelDebug, "Query", map[string]any{"sql": "SELECT 1"})

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"sql":"SELECT 1"`)
	assert.Contains(t, out, `"message":"Query"`)
}

func TestZerologLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, zerologLevel(tracelog.LogLevelError))
	assert.Equal(t, zerolog.WarnLevel, zerologLevel(tracelog.LogLevelWarn))
	assert.Equal(t, zerolog.Disabled, zerologLevel(tracelog.LogLevelNone))
}
