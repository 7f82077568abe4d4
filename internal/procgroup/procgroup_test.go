package procgroup

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_KillsGrandchildren(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are not supported on windows")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The trailing echo keeps sh from exec'ing sleep, so sleep is a grandchild
	// holding the output pipe.
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", "sleep 5; echo done")
	var out strings.Builder
	cmd.Stdout = &out
	Bind(cmd)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Less(t, elapsed, 3*time.Second)
	assert.Empty(t, out.String())
}

func TestBind_SuccessIsUntouched(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are not supported on windows")
	}

	cmd := exec.CommandContext(context.Background(), "/bin/sh", "-c", "echo ok")
	var out strings.Builder
	cmd.Stdout = &out
	Bind(cmd)

	require.NoError(t, cmd.Run())
	assert.Equal(t, "ok\n", out.String())
	assert.Equal(t, WaitDelay, cmd.WaitDelay)
}
