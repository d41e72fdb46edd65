package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - (DEBUG|INFO|WARN|ERROR) - `)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo))

	logger.Info("Weather data fetched.", "temperature", 11.2, "weather_code", 3, "time", "2024-03-01 12:15")
	line := strings.TrimSuffix(buf.String(), "\n")

	assert.Regexp(t, linePattern, line)
	assert.True(t, strings.HasSuffix(line, ` - INFO - Weather data fetched. temperature=11.2 weather_code=3 time="2024-03-01 12:15"`), line)
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), " - WARN - shown")
}

func TestHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelDebug)).With("run", "abc")

	logger.WithGroup("http").Error("request failed", "error", errors.New("dial tcp: refused"), "delay", 200*time.Millisecond)
	out := buf.String()

	assert.Contains(t, out, ` - ERROR - request failed run=abc http.error="dial tcp: refused" http.delay=200ms`)
}

func TestHandler_EmptyString(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, nil)).Info("msg", "ip", "")
	assert.Contains(t, buf.String(), `ip=""`)
}

func TestNew_WritesFileAndConsole(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "zenith")
	var console bytes.Buffer

	logger, closer, err := New(Options{Dir: dir, Level: slog.LevelInfo, Console: &console})
	require.NoError(t, err)
	logger.Info("Fetching weather data...")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), " - INFO - Fetching weather data...")
	assert.Equal(t, string(data), console.String())
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := New(Options{Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hello")
	assert.Contains(t, console.String(), "hello")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
