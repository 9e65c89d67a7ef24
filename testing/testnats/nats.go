// Package testnats runs a NATS server in a container for publisher tests.
package testnats

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const clientPort = "4222/tcp"

type NATSContainer struct {
	Container testcontainers.Container
	URL       string
}

var (
	shared     *NATSContainer
	sharedErr  error
	sharedOnce sync.Once
)

// SetupSharedNATS starts one NATS server per test binary, or skips the test when no
// container runtime is reachable. Subjects are shared, so callers must not run in parallel.
func SetupSharedNATS(t *testing.T) *NATSContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		shared, sharedErr = start(context.Background())
	})
	require.NoError(t, sharedErr, "nats container failed to start")
	return shared
}

func start(ctx context.Context) (*NATSContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{clientPort},
			WaitingFor:   wait.ForListeningPort(clientPort),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint, err := container.PortEndpoint(ctx, clientPort, "nats")
	if err != nil {
		return nil, fmt.Errorf("resolve nats endpoint: %w", err)
	}
	return &NATSContainer{Container: container, URL: endpoint}, nil
}

func (nc *NATSContainer) Cleanup(t *testing.T) {
	t.Helper()
	if nc == nil || nc.Container == nil {
		return
	}
	if err := nc.Container.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate nats container: %s", err)
	}
}

// Connect opens a client connection that is closed when the test ends.
func (nc *NATSContainer) Connect(t *testing.T) *nats.Conn {
	t.Helper()

	conn, err := nats.Connect(nc.URL)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}
