//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestScorecardWithMySQL tests the scorecard CLI with a MySQL backend.
func TestScorecardWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "scorecard",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/scorecard?parseTime=true", host, port.Port())
	env := []string{
		"SCORECARD_CACHE_BACKEND=mysql",
		"SCORECARD_CACHE_DB_CONNECT=" + connStr,
		"SCORECARD_HISTORY_BACKEND=mysql",
		"SCORECARD_HISTORY_DB_CONNECT=" + connStr,
	}
	runBackendScenario(t, env)
}

// TestScorecardWithPostgres tests the scorecard CLI with a PostgreSQL backend.
func TestScorecardWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	env := []string{
		"SCORECARD_CACHE_BACKEND=postgresql",
		"SCORECARD_CACHE_DB_CONNECT=" + connStr,
		"SCORECARD_HISTORY_BACKEND=postgresql",
		"SCORECARD_HISTORY_DB_CONNECT=" + connStr,
	}
	runBackendScenario(t, env)
}

// TestScorecardWithRedis tests the scorecard CLI with a Redis cache and no history.
func TestScorecardWithRedis(t *testing.T) {
	ctx := context.Background()

	// Start Redis container
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = redisC.Terminate(ctx) }()

	// Get connection details
	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	env := []string{
		"SCORECARD_CACHE_BACKEND=redis",
		"SCORECARD_CACHE_DB_CONNECT=" + fmt.Sprintf("redis://%s:%s/0", host, port.Port()),
		"SCORECARD_ACCESS_CODE=1947",
	}
	require.NoError(t, runScorecardCommand(t, env, "cache", "clear"))
	require.NoError(t, runScorecardCommand(t, env, "show"))
	require.NoError(t, runScorecardCommand(t, env, "show")) // served from cache
	require.NoError(t, runScorecardCommand(t, env, "cache", "status"))
}

// runBackendScenario clears both stores, scores twice and checks the status commands.
func runBackendScenario(t *testing.T, env []string) {
	t.Helper()
	env = append(env, "SCORECARD_ACCESS_CODE=1947")

	require.NoError(t, runScorecardCommand(t, env, "cache", "clear"))
	require.NoError(t, runScorecardCommand(t, env, "history", "clear"))
	require.NoError(t, runScorecardCommand(t, env, "show"))
	require.NoError(t, runScorecardCommand(t, env, "show", "--month", "January"))
	require.NoError(t, runScorecardCommand(t, env, "cache", "status"))
	require.NoError(t, runScorecardCommand(t, env, "history", "status"))
}

func runScorecardCommand(t *testing.T, env []string, args ...string) error {
	cmd := scorecardCommand(env, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
