package fillrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/openclaw/plashboard/internal/domain"
)

// Agent invokes an external agent binary as `<bin> --agent <id> --message
// <text> --json --timeout <seconds>`. Its outer context timeout is the
// session timeout plus 30s of slack for the agent's own bookkeeping.
type Agent struct {
	Binary         string
	AgentID        string
	SessionTimeout time.Duration
}

func (a *Agent) Run(ctx context.Context, fc FillContext) (map[string]any, error) {
	if a.Binary == "" {
		return nil, fmt.Errorf("%w: agent binary is not configured", domain.ErrConfigInvalid)
	}

	prompt := BuildPrompt(fc)
	promptJSON, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal prompt: %v", domain.ErrFillProviderError, err)
	}

	seconds := int(a.SessionTimeout.Seconds())
	outerTimeout := timeoutFor(seconds, 30*time.Second)

	runCtx, cancel := context.WithTimeout(ctx, outerTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.Binary,
		"--agent", a.AgentID,
		"--message", string(promptJSON),
		"--json",
		"--timeout", strconv.Itoa(seconds),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = killProcess(cmd)

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%w: agent call timed out after %s", domain.ErrFillProviderError, outerTimeout)
		}
		return nil, fmt.Errorf("%w: agent call exited non-zero: %v (stderr: %s)", domain.ErrFillProviderError, err, stderr.String())
	}

	return ParseOutput(stdout.String(), "agent")
}
