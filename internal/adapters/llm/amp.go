package llm

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// ampAutoApproveFlag runs amp in fully-auto, non-interactive mode.
const ampAutoApproveFlag = "--dangerously-allow-all"

// AmpProvider implements core.Provider by shelling out to the amp CLI.
type AmpProvider struct {
	path   string
	logger *logging.Logger
}

// NewAmpProvider creates a new amp provider. path overrides the binary name,
// empty means "amp" resolved on PATH.
func NewAmpProvider(path string, logger *logging.Logger) *AmpProvider {
	if path == "" {
		path = "amp"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AmpProvider{
		path:   path,
		logger: logger.WithProvider(core.ProviderAmp),
	}
}

// Name returns the provider identifier.
func (p *AmpProvider) Name() string {
	return core.ProviderAmp
}

// Probe reports whether the amp executable resolves on the search path.
func (p *AmpProvider) Probe(_ context.Context) bool {
	_, err := exec.LookPath(p.path)
	return err == nil
}

// Chat feeds the prompt to amp on stdin and returns stdout and stderr
// concatenated. Merging both streams preserves the behavior of the scripted
// usage this replaced: completion markers may appear on either stream. A
// non-zero exit alone does not fail the call for the same reason.
func (p *AmpProvider) Chat(ctx context.Context, prompt string) (string, error) {
	// #nosec G204 -- binary name comes from validated config
	cmd := exec.CommandContext(ctx, p.path, ampAutoApproveFlag)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("amp: executing", "path", p.path, "prompt_length", len(prompt))

	err := cmd.Run()
	combined := stdout.String() + stderr.String()

	if ctx.Err() != nil {
		return "", core.ErrProviderCall(core.ProviderAmp, ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.logger.Debug("amp: non-zero exit", "exit_code", exitErr.ExitCode())
			return combined, nil
		}
		return "", core.ErrProviderCall(core.ProviderAmp, err)
	}

	return combined, nil
}
