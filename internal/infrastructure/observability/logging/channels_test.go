package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer) *ChanneledLogger {
	t.Helper()
	logger, err := NewChanneledLogger(&LoggerConfig{
		OutputToConsole: true,
		Console:         buf,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelInfo,
	})
	require.NoError(t, err)
	return logger
}

func lines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

func TestChannelAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)

	logger.Editor().Info("hello")
	recs := lines(&buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "editor", recs[0]["channel"])
	assert.Equal(t, "hello", recs[0]["msg"])
}

func TestUnknownChannelFallsBackToSystem(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)

	logger.GetChannel(Channel("nope")).Info("x")
	assert.Equal(t, "system", lines(&buf)[0]["channel"])
}

func TestSetChannelLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)

	logger.Render().Debug("hidden")
	assert.Empty(t, lines(&buf))

	require.NoError(t, logger.SetChannelLevel(ChannelRender, slog.LevelDebug))
	buf.Reset()
	logger.Render().Debug("shown")
	logger.Editor().Debug("still hidden")

	recs := lines(&buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])

	levels := logger.GetChannelLevels()
	assert.Equal(t, "DEBUG", levels["render"])
	assert.Equal(t, "INFO", levels["editor"])
	assert.Len(t, levels, len(Channels))

	assert.Error(t, logger.SetChannelLevel(Channel("nope"), slog.LevelDebug))
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)

	logger.LogSceneMutation("add", "01HZZZZZZZZZZZZZZZZZZZZZZZ", true, 3, time.Millisecond)
	logger.LogError(ChannelPreview, "encode", errors.New("boom"), map[string]any{"format": "png"})

	recs := lines(&buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "01HZ****ZZZZ", recs[0]["sessionId"])
	assert.Equal(t, true, recs[0]["changed"])
	assert.Equal(t, "boom", recs[1]["error"])
	assert.Equal(t, "png", recs[1]["format"])
	assert.Equal(t, "ERROR", recs[1]["level"])
}

func TestParseHelpers(t *testing.T) {
	c, err := ParseChannel("websocket")
	require.NoError(t, err)
	assert.Equal(t, ChannelWebsocket, c)
	_, err = ParseChannel("tenant")
	assert.Error(t, err)

	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestMaskSessionID(t *testing.T) {
	assert.Equal(t, "********", MaskSessionID("short"))
	assert.Equal(t, "abcd****wxyz", MaskSessionID("abcdefghijklmnopqrstuvwxyz"))
}

func TestFiltersMatch(t *testing.T) {
	f := AppliedFilters{Channel: ChannelEditor, Level: slog.LevelWarn}
	assert.True(t, f.Matches(LogEntry{Channel: "editor", Level: "ERROR"}))
	assert.True(t, f.Matches(LogEntry{Channel: "editor", Level: "WARN"}))
	assert.False(t, f.Matches(LogEntry{Channel: "editor", Level: "INFO"}))
	assert.False(t, f.Matches(LogEntry{Channel: "render", Level: "ERROR"}))

	all := AppliedFilters{Channel: AllChannels, Level: slog.LevelDebug}
	assert.True(t, all.Matches(LogEntry{Channel: "render", Level: "DEBUG"}))
	assert.False(t, all.Matches(LogEntry{Channel: "render", Level: "garbage"}))
}

func TestBroadcasterDelivers(t *testing.T) {
	b := NewLogBroadcaster()
	go b.Run()
	defer b.Shutdown()

	client := b.NewClient(AppliedFilters{Channel: ChannelSession, Level: slog.LevelInfo})
	require.True(t, b.RegisterClient(client))

	b.SubmitLog(LogEntry{Channel: "editor", Level: "ERROR", Message: "filtered"})
	b.SubmitLog(LogEntry{Channel: "session", Level: "INFO", Message: "expired"})

	select {
	case msg := <-client.Channel:
		var entry LogEntry
		require.NoError(t, json.Unmarshal(msg, &entry))
		assert.Equal(t, "expired", entry.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no log delivered")
	}

	b.UnregisterClient(client)
	_, open := <-client.Channel
	assert.False(t, open)
}
