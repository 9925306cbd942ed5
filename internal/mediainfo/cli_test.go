package mediainfo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMediaInfo writes a shell script standing in for the mediainfo binary.
// The script records its arguments next to itself and then runs body.
func fakeMediaInfo(t *testing.T, body string) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}

	dir := t.TempDir()
	bin = filepath.Join(dir, "mediainfo")
	argsFile = filepath.Join(dir, "args")

	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o700)) // #nosec G306 - test executable
	return bin, argsFile
}

func TestNewCLIAnalyzer(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		a := NewCLIAnalyzer("")
		assert.Equal(t, "mediainfo", a.binPath)
	})

	t.Run("custom path", func(t *testing.T) {
		a := NewCLIAnalyzer("/opt/bin/mediainfo")
		assert.Equal(t, "/opt/bin/mediainfo", a.binPath)
	})
}

func TestCLIAnalyzer_Analyze(t *testing.T) {
	fixture, err := filepath.Abs("testdata/sample.json")
	require.NoError(t, err)
	bin, argsFile := fakeMediaInfo(t, "cat '"+fixture+"'")

	input := "https://media.s3.eu-west-1.amazonaws.com/videos/clip.mp4?X-Amz-Signature=abc"
	r, err := NewCLIAnalyzer(bin).Analyze(context.Background(), input)
	require.NoError(t, err)

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, "mp4", s.FileExtension)
	assert.Equal(t, "video/mp4", s.InternetMediaType)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"--Full", "--Output=JSON", input}, strings.Fields(string(args)))
}

func TestCLIAnalyzer_Analyze_Failure(t *testing.T) {
	bin, _ := fakeMediaInfo(t, "echo 'cannot open input' >&2\nexit 1")

	input := "https://media.s3.amazonaws.com/videos/clip.mp4?X-Amz-Signature=secret"
	_, err := NewCLIAnalyzer(bin).Analyze(context.Background(), input)
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "https://media.s3.amazonaws.com/videos/clip.mp4", execErr.Input)
	assert.Contains(t, execErr.Stderr, "cannot open input")
	assert.NotContains(t, err.Error(), "secret")

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestCLIAnalyzer_Analyze_InvalidOutput(t *testing.T) {
	bin, _ := fakeMediaInfo(t, "echo 'General'")

	_, err := NewCLIAnalyzer(bin).Analyze(context.Background(), "/data/clip.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "/data/clip.mp4")
}

func TestCLIAnalyzer_Analyze_Cancelled(t *testing.T) {
	bin, _ := fakeMediaInfo(t, "sleep 5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCLIAnalyzer(bin).Analyze(ctx, "/data/clip.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCLIAnalyzer_Analyze_MissingBinary(t *testing.T) {
	_, err := NewCLIAnalyzer(filepath.Join(t.TempDir(), "missing")).Analyze(context.Background(), "/data/clip.mp4")
	require.Error(t, err)

	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://b.s3.amazonaws.com/k.mp4?X-Amz-Signature=x", "https://b.s3.amazonaws.com/k.mp4"},
		{"https://b.s3.amazonaws.com/k.mp4", "https://b.s3.amazonaws.com/k.mp4"},
		{"/tmp/media/k.mp4", "/tmp/media/k.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.in))
		})
	}
}
