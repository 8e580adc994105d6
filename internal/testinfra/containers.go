//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresPort  = "5432"
	redisImage    = "redis:7-alpine"
	redisPort     = "6379"

	PostgresUser     = "kzstats"
	PostgresPassword = "kzstats"
	PostgresDatabase = "kzstats"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// Postgres is a running PostgreSQL container
type Postgres struct {
	testcontainers.Container
	Host string
	Port int
}

// StartPostgres starts PostgreSQL and registers its cleanup on t.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	SkipIfNoDocker(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{postgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     PostgresUser,
			"POSTGRES_PASSWORD": PostgresPassword,
			"POSTGRES_DB":       PostgresDatabase,
		},
		// The server logs readiness twice: once for the init run, once for real.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(postgresPort+"/tcp"),
		).WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("create postgres container: %v", err)
	}
	t.Cleanup(func() { cleanupContainer(t, container) })

	host, port := endpoint(t, ctx, container)
	return &Postgres{Container: container, Host: host, Port: port}
}

// Redis is a running Redis container
type Redis struct {
	testcontainers.Container
	Addr string
}

// StartRedis starts Redis and registers its cleanup on t.
func StartRedis(t *testing.T) *Redis {
	t.Helper()
	SkipIfNoDocker(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{redisPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort(redisPort+"/tcp"),
		).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("create redis container: %v", err)
	}
	t.Cleanup(func() { cleanupContainer(t, container) })

	host, port := endpoint(t, ctx, container)
	return &Redis{Container: container, Addr: fmt.Sprintf("%s:%d", host, port)}
}

// endpoint returns the host and mapped port of the container's only
// exposed port.
func endpoint(t *testing.T, ctx context.Context, container testcontainers.Container) (string, int) {
	t.Helper()

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("get container endpoint: %v", err)
	}
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("parse container endpoint %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		t.Fatalf("parse container port %q: %v", portText, err)
	}
	return host, port
}

func cleanupContainer(t *testing.T, container testcontainers.Container) {
	t.Helper()
	if err := container.Terminate(context.Background()); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}
