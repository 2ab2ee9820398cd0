package videos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// CommandRunner executes an external command fed from stdin and returns stdout bytes.
type CommandRunner func(ctx context.Context, stdin io.Reader, binary string, args ...string) ([]byte, error)

// FFProbe reads media durations with the ffprobe CLI.
type FFProbe struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFProbe constructs a prober that shells out to ffprobe.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbe{
		Binary:  binary,
		Args:    []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "-i", "pipe:0"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Duration streams r into ffprobe and returns the container duration in seconds.
func (p *FFProbe) Duration(ctx context.Context, r io.Reader) (float64, error) {
	if p == nil {
		return 0, ErrProberUnavailable
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := p.Run(execCtx, r, p.Binary, p.Args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("parse ffprobe response: %w", err)
	}
	if payload.Format.Duration == "" || payload.Format.Duration == "N/A" {
		return 0, ErrNoDuration
	}

	seconds, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, payload.Format.Duration)
	}
	return seconds, nil
}

func defaultCommandRunner(ctx context.Context, stdin io.Reader, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}
