// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Images used by the integration tests.
const (
	NATSImage  = "nats:2.10-alpine"
	RedisImage = "redis:7-alpine"
	MinIOImage = "minio/minio:RELEASE.2024-06-13T22-53-53Z"

	MinIOAccessKey = "loyaltylite"
	MinIOSecretKey = "loyaltylite-secret"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if the Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// Endpoint is a started container and the host:port of its main service.
type Endpoint struct {
	testcontainers.Container
	HostPort string
}

// Terminate stops the container, logging instead of failing.
func (e *Endpoint) Terminate(t *testing.T) {
	t.Helper()
	if e == nil || e.Container == nil {
		return
	}
	if err := e.Container.Terminate(context.Background()); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}

// StartNATS starts a JetStream-enabled NATS server.
func StartNATS(ctx context.Context) (*Endpoint, error) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        NATSImage,
		Cmd:          []string{"-js"},
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
	}, "4222")
}

// StartRedis starts a Redis server.
func StartRedis(ctx context.Context) (*Endpoint, error) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}, "6379")
}

// StartMinIO starts a single-node MinIO server using MinIOAccessKey and
// MinIOSecretKey as root credentials.
func StartMinIO(ctx context.Context) (*Endpoint, error) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        MinIOImage,
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     MinIOAccessKey,
			"MINIO_ROOT_PASSWORD": MinIOSecretKey,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	}, "9000")
}

func start(ctx context.Context, req testcontainers.ContainerRequest, port string) (*Endpoint, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	return &Endpoint{Container: container, HostPort: fmt.Sprintf("%s:%s", host, mapped.Port())}, nil
}
