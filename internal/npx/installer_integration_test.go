// SPDX-License-Identifier: MPL-2.0

package npx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/invowk/iod/internal/testutil"
)

func TestInstaller_Integration(t *testing.T) {
	t.Parallel()

	node := testutil.StartNodeContainer(t)
	inst := New(node, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	version, err := inst.CheckVersion(ctx)
	if err != nil {
		t.Fatalf("CheckVersion() error = %v", err)
	}
	t.Logf("npx %s", version)

	out, err := inst.Install(ctx, mustParseAll(t, "left-pad@1.3.0", "is-number@7.0.0"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !strings.Contains(out, "/.npm/_npx/") {
		t.Errorf("Install() output has no npx cache segment:\n%s", out)
	}
}
