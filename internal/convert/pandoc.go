// Package convert runs external document converters.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/Lllllllleong/documentingestion/internal/pipeline"
)

// Pandoc converts documents by running the pandoc binary.
type Pandoc struct {
	// Path is the pandoc executable. Empty means "pandoc" on PATH.
	Path string
}

// Convert runs `pandoc <input> --from=<from> --to=<to>`. A nonzero exit is
// reported through ExitCode, not as an error; the error is reserved for a
// process that could not be started or was killed by ctx.
func (p *Pandoc) Convert(ctx context.Context, inputPath, from, to string) (pipeline.ConversionOutput, error) {
	path := p.Path
	if path == "" {
		path = "pandoc"
	}
	cmd := exec.CommandContext(ctx, path, inputPath, "--from="+from, "--to="+to)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := pipeline.ConversionOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, fmt.Errorf("run %s: %w", path, err)
}
