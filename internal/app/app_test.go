package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "mergington-activities-test"
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 1000
	cfg.Events.SinkTimeout = 1000
	cfg.Events.Redis.Channel = "activities.roster"
	return cfg
}

func fastRetries(t *testing.T) {
	t.Helper()
	retries, delay := connectRetries, connectDelay
	connectRetries, connectDelay = 2, time.Millisecond
	t.Cleanup(func() { connectRetries, connectDelay = retries, delay })
}

func TestNew_EmbeddedSeedNoSinks(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Len(t, a.Registry.Names(), 10)
	assert.Equal(t, "127.0.0.1:0", a.Server.Addr)
}

func TestNew_SeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
activities:
  - name: Robotics
    description: Build and program robots
    schedule: Mondays, 3:30 PM - 5:00 PM
    max_participants: 8
    participants: []
`), 0o644))

	cfg := testConfig()
	cfg.Seed.Path = path
	a, err := New(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, []string{"Robotics"}, a.Registry.Names())
}

func TestNew_BadSeedPath(t *testing.T) {
	cfg := testConfig()
	cfg.Seed.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestNew_RedisUnreachable(t *testing.T) {
	fastRetries(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Events.Redis.Enabled = true
	cfg.Database.Redis.Address = addr

	_, err := New(context.Background(), cfg, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis connection failed after 2 attempts")
}

// Signup over HTTP lands in the roster and is published on the Redis channel.
func TestEndToEnd_SignupPublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Events.Redis.Enabled = true
	cfg.Database.Redis.Address = mr.Addr()

	a, err := New(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	ctx := context.Background()
	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, "activities.roster")
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Server.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/activities/Chess%20Club/signup?email=e2e@mergington.edu", "", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	select {
	case msg := <-ps.Channel():
		var event models.RosterEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, models.RosterEventSignedUp, event.Type)
		assert.Equal(t, "Chess Club", event.Activity)
		assert.Equal(t, "e2e@mergington.edu", event.Email)
		assert.NotEmpty(t, event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("roster event not published")
	}

	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRetryWithBackoff_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	op := func() error {
		attempts++
		cancel()
		return errors.New("connection refused")
	}

	start := time.Now()
	err := retryWithBackoff(ctx, op, 10, time.Hour, logger.NewTestLogger(t), "Redis connection")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	}

	err := retryWithBackoff(context.Background(), op, 5, time.Millisecond, logger.NewTestLogger(t), "PostgreSQL connection")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestNew_CancelledDuringConnectReturnsPromptly(t *testing.T) {
	retries, delay := connectRetries, connectDelay
	connectRetries, connectDelay = 10, time.Hour
	t.Cleanup(func() { connectRetries, connectDelay = retries, delay })

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Events.Redis.Enabled = true
	cfg.Database.Redis.Address = addr

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(ctx, cfg, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
