package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/starford/altair/internal/models"
)

// Simulator runs the external single-exposure simulator over one manifest.
type Simulator interface {
	Simulate(ctx context.Context, m models.ExposureManifest) error
}

// SimulatorFunc adapts a plain function to the Simulator interface.
type SimulatorFunc func(ctx context.Context, m models.ExposureManifest) error

func (f SimulatorFunc) Simulate(ctx context.Context, m models.ExposureManifest) error {
	return f(ctx, m)
}

// outputTailBytes caps how much combined simulator output survives into the
// run report.
const outputTailBytes = 512

// ExecSimulator invokes an external command with the manifest path appended
// as the final argument. Dir should be the workspace root so the manifest's
// relative paths resolve.
type ExecSimulator struct {
	Command string
	Args    []string
	Dir     string
}

func (s ExecSimulator) Simulate(ctx context.Context, m models.ExposureManifest) error {
	args := append(append([]string{}, s.Args...), m.FilePath)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Dir = s.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("exit %d: %s", exitErr.ExitCode(), outputTail(out.Bytes()))
	}
	return fmt.Errorf("start %s: %w", s.Command, err)
}

func outputTail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "(no output)"
	}
	if len(s) > outputTailBytes {
		s = "..." + s[len(s)-outputTailBytes:]
	}
	return s
}
