package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/perfstore/internal/report"
	"github.com/sawpanic/perfstore/internal/stats"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	err := root.Execute()
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	require.NoError(t, setupLogger(&buf, "warn", false))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])

	assert.Error(t, setupLogger(&buf, "loud", false))
}

func TestKeysCommand(t *testing.T) {
	out, err := execute(t, "keys", "--at", "1706695260", "--category", "web")
	require.NoError(t, err)

	assert.Contains(t, out, "day:    date-2024-01-31")
	assert.Contains(t, out, "minute: 10:01")
	assert.Contains(t, out, "day pattern:    web|date-2024-01-31|*")
	assert.Contains(t, out, "minute pattern: web|date-2024-01-31|10:01|*")
}

func TestKeysCommand_Errors(t *testing.T) {
	_, err := execute(t, "keys", "--at", "-99999999999999")
	assert.Error(t, err)

	_, err = execute(t, "keys", "--category", "a|b")
	assert.Error(t, err)
}

func TestSaveCommand_RejectsInvalidJSON(t *testing.T) {
	_, err := execute(t, "save", "web", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestRenderReports(t *testing.T) {
	reports := []report.DayReport{
		{
			Category: "web",
			Day:      "date-2024-01-30",
			Minutes:  []report.MinuteReport{},
			Total:    stats.Summarize(nil),
		},
		{
			Category: "web",
			Day:      "date-2024-01-31",
			Minutes: []report.MinuteReport{
				{Minute: "10:01", Summary: stats.Summarize([]float64{10, 30})},
			},
			Total:   stats.Summarize([]float64{10, 30}),
			Skipped: 2,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderReports(&buf, reports, true))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "MEDIAN")
	assert.Contains(t, lines[1], "date-2024-01-30")
	assert.Contains(t, lines[1], "-")
	assert.Contains(t, lines[2], "20.00")
	assert.Contains(t, lines[3], "10:01")

	buf.Reset()
	require.NoError(t, renderReports(&buf, reports, false))
	assert.Len(t, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), 3)
}
