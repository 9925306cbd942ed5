package mediainfo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
)

// Compile-time check that CLIAnalyzer implements Analyzer.
var _ Analyzer = (*CLIAnalyzer)(nil)

// CLIAnalyzer implements Analyzer using the mediainfo CLI.
type CLIAnalyzer struct {
	// binPath is the path to the mediainfo binary. Defaults to "mediainfo".
	binPath string
}

// NewCLIAnalyzer creates a new CLIAnalyzer.
// If binPath is empty, it defaults to "mediainfo" (found via PATH).
func NewCLIAnalyzer(binPath string) *CLIAnalyzer {
	if binPath == "" {
		binPath = "mediainfo"
	}
	return &CLIAnalyzer{binPath: binPath}
}

// Analyze runs `mediainfo --Full --Output=JSON input` and parses the result.
// MediaInfo fetches http(s) inputs itself, so a presigned URL can be passed
// without downloading the object first.
func (a *CLIAnalyzer) Analyze(ctx context.Context, input string) (*Report, error) {
	args := []string{
		"--Full",        // All fields, not only the summary set
		"--Output=JSON", // Machine readable report
		input,
	}

	// #nosec G204 - binPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, a.binPath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("mediainfo cancelled: %w", ctx.Err())
		}
		return nil, &ExecError{
			Input:  Redact(input),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	report, err := ParseReport(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse report for %s: %w", Redact(input), err)
	}
	return report, nil
}

// ExecError represents a failed mediainfo run, including its stderr output.
type ExecError struct {
	Input  string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("mediainfo error: %v\ninput: %s\nstderr: %s", e.Err, e.Input, e.Stderr)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Redact drops the query string of URLs so signatures never reach logs.
// Other inputs are returned unchanged.
func Redact(input string) string {
	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" || u.RawQuery == "" {
		return input
	}
	u.RawQuery = ""
	return u.String()
}
