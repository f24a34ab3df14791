package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// CLISession runs a tool-using review session through the Claude Code CLI in
// non-interactive mode. The prompt is piped via stdin and the CLI's
// stream-json output is consumed until the first terminal result message.
type CLISession struct {
	command string
	logger  *slog.Logger
}

// NewCLISession creates a session driver around the given agent command.
// An empty command defaults to "claude".
func NewCLISession(command string, logger *slog.Logger) *CLISession {
	if command == "" {
		command = "claude"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLISession{command: command, logger: logger}
}

func (s *CLISession) buildArgs(opts Options) []string {
	args := []string{"-p", "--verbose", "--output-format", "stream-json"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprintf("%d", opts.MaxTurns))
	}
	if opts.Permission != "" {
		args = append(args, "--permission-mode", opts.Permission)
	}

	// Tool approval happens inside the agent process, so the policy is
	// projected onto flags: an explicit allow-list narrows the session,
	// a nil list grants everything the permission mode covers.
	policy := opts.Policy
	if policy == nil {
		policy = AllowAll()
	}
	if tools := policy.Tools(); len(tools) > 0 {
		args = append(args, "--allowedTools", strings.Join(tools, ","))
	}
	return args
}

// Run opens one session, consumes the message stream, and returns the final
// result. A terminal failure message fails the whole run; it is not retried
// here. A stream that ends without a terminal message yields the last
// non-empty assistant text as a fallback; when that fallback is empty too and
// the process exited nonzero, the error carries the captured stderr.
func (s *CLISession) Run(ctx context.Context, prompt string, opts Options) (*Result, error) {
	args := s.buildArgs(opts)
	s.logger.Debug("starting agent session", "command", s.command, "model", opts.Model, "max_turns", opts.MaxTurns)

	cmd := exec.CommandContext(ctx, s.command, args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", s.command, err)
	}
	go func() {
		defer stdin.Close()
		_, _ = io.WriteString(stdin, prompt)
	}()

	result, sawTerminal, runErr := s.consume(stdout, opts)

	// The session is explicitly over once a terminal message was seen;
	// drain whatever the process still writes so Wait cannot block.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if runErr != nil {
		return nil, runErr
	}
	if waitErr != nil && !sawTerminal && result.Text == "" && len(result.Structured) == 0 {
		return nil, fmt.Errorf("%s exited without producing any output: %w\nstderr: %s", s.command, waitErr, stderr.String())
	}
	return result, nil
}

// consume iterates the stream and stops at the first definitive outcome. The
// boolean reports whether a terminal result message was seen at all.
func (s *CLISession) consume(r io.Reader, opts Options) (*Result, bool, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var fallback string

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		ev := decodeEvent(line)
		switch ev.Kind {
		case eventAssistant:
			// Keep only the most recent full utterance, not a transcript.
			if ev.Text != "" {
				fallback = ev.Text
			}
		case eventResultSuccess:
			s.logger.Debug("agent session finished", "subtype", ev.Subtype)
			return s.finish(ev, fallback, opts), true, nil
		case eventResultFailure:
			s.logger.Warn("agent session failed", "subtype", ev.Subtype, "request_id", ev.RequestID)
			return nil, true, newRunError(ev.Subtype, ev.RequestID, ev.Errors)
		case eventIgnored:
			// Tool use, progress, and malformed lines carry nothing the
			// driver acts on.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("scan agent output: %w", err)
	}

	// Stream ended without a terminal message.
	return s.finish(event{}, fallback, opts), false, nil
}

func (s *CLISession) finish(ev event, fallback string, opts Options) *Result {
	text := ev.Text
	if text == "" {
		text = fallback
	}

	res := &Result{Text: text, Structured: ev.Structured}
	if opts.Structured && len(res.Structured) == 0 {
		res.Structured = extractJSONObject(text)
	}
	return res
}
