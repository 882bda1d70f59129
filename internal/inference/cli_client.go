package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// maxStderr is how much of the CLI's stderr is kept in an error.
const maxStderr = 512

// CLIClient asks the claude CLI for a single judge verdict. It runs on a local
// plan, so the contradiction scorer works without an API key.
type CLIClient struct {
	cliPath string
	model   string
}

// NewCLIClient returns a client for the binary at cliPath. An empty model leaves
// the CLI's own default in place.
func NewCLIClient(cliPath, model string) *CLIClient {
	return &CLIClient{cliPath: cliPath, model: model}
}

// cliResult is the envelope printed by --output-format json.
type cliResult struct {
	Type    string `json:"type"`
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *CLIClient) args(systemPrompt string) []string {
	args := []string{
		"--print",
		"--output-format", "json",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := exec.CommandContext(ctx, c.cliPath, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("claude CLI: %w", ctxErr)
		}
		return nil, fmt.Errorf("claude CLI error: %w (stderr: %s)", err, tail(stderr.String(), maxStderr))
	}
	return parseCLIOutput(stdout.Bytes())
}

// parseCLIOutput reads the JSON envelope. Output that is not an envelope is
// taken as the verdict text itself, which is what older CLI builds print.
func parseCLIOutput(out []byte) (*LLMResponse, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, errors.New("claude CLI returned empty response")
	}

	var res cliResult
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &res) != nil || res.Type != "result" {
		return &LLMResponse{Content: string(trimmed)}, nil
	}
	if res.IsError {
		return nil, fmt.Errorf("claude CLI reported an error: %s", tail(res.Result, maxStderr))
	}
	content := strings.TrimSpace(res.Result)
	if content == "" {
		return nil, errors.New("claude CLI returned empty response")
	}
	return &LLMResponse{
		Content:      content,
		PromptTokens: res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
	}, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
