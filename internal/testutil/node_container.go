// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"github.com/invowk/iod/internal/runtime"
)

// NodeImage is the image used by container integration tests. It ships npm 10.
const NodeImage = "node:20-alpine"

// NodeContainer is a runtime.Runtime that executes every command inside a
// long-running node container through `sh -c`.
type NodeContainer struct {
	ctr testcontainers.Container
}

// TestcontainersAvailable reports whether a container provider can be reached.
// testcontainers panics on some hosts without a Docker socket, so the probe
// recovers.
func TestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// StartNodeContainer starts NodeImage and registers its termination with
// t.Cleanup. The test is skipped in short mode or without a provider.
func StartNodeContainer(t *testing.T) *NodeContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container integration test in short mode")
	}
	if !TestcontainersAvailable() {
		t.Skip("skipping container integration test: testcontainers provider not available")
	}

	sem := ContainerSemaphore()
	sem <- struct{}{}
	t.Cleanup(func() { <-sem })

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:      NodeImage,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: "/work",
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", NodeImage, err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("warning: terminate %s: %v", NodeImage, err)
		}
	})

	return &NodeContainer{ctr: ctr}
}

// Name returns "container".
func (c *NodeContainer) Name() string { return "container" }

// Available always returns true once the container is started.
func (c *NodeContainer) Available() bool { return true }

// Run executes cmd.Line through `sh -c` in the container. Stdout and stderr
// are multiplexed into Output.
func (c *NodeContainer) Run(ctx context.Context, cmd runtime.Command) *runtime.Result {
	opts := []tcexec.ProcessOption{tcexec.Multiplexed()}
	if cmd.Dir != "" {
		opts = append(opts, tcexec.WithWorkingDir(cmd.Dir))
	}
	if env := runtime.EnvToSlice(cmd.Env); len(env) > 0 {
		opts = append(opts, tcexec.WithEnv(env))
	}

	code, reader, err := c.ctr.Exec(ctx, []string{"sh", "-c", cmd.Line}, opts...)
	if err != nil {
		return runtime.NewErrorResult(1, fmt.Errorf("container exec: %w", err))
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return runtime.NewErrorResult(1, fmt.Errorf("read container output: %w", err))
	}
	if code != 0 {
		return runtime.NewExitCodeResult(runtime.ExitCode(code), string(out))
	}
	return runtime.NewSuccessResult(string(out))
}
