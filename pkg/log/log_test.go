package log

import (
	"bytes"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(c *Console)
		wantLogs []string
	}{
		{
			name: "header",
			op: func(c *Console) {
				c.Header("migrating /osu -> /songs")
			},
			wantLogs: []string{
				"osulift • migrating /osu -> /songs",
			},
		},
		{
			name: "messages",
			op: func(c *Console) {
				c.Success("success message")
				c.Warning("warning message")
				c.Error("error message")
			},
			wantLogs: []string{
				"✅ success message",
				"⚠️  warning message",
				"❌ error message",
			},
		},
		{
			name: "formatted_messages",
			op: func(c *Console) {
				c.Successf("transferred %d files", 42)
				c.Warningf("skipped %d rows", 3)
			},
			wantLogs: []string{
				"✅ transferred 42 files",
				"⚠️  skipped 3 rows",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			console := New(&buf, zerolog.New(io.Discard))

			tt.op(console)

			for _, want := range tt.wantLogs {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

// newTestBar builds a ProgressBar over a silent pterm printer.
func newTestBar(t *testing.T, total int) *ProgressBar {
	t.Helper()
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithWriter(io.Discard).
		Start()
	require.NoError(t, err)
	return &ProgressBar{bar: bar}
}

func TestProgressBar_Update(t *testing.T) {
	p := newTestBar(t, 10)
	defer p.Stop()

	p.Update(3, 10)
	assert.Equal(t, 3, p.bar.Current)

	p.Update(7, 10)
	assert.Equal(t, 7, p.bar.Current)

	p.Update(10, 10)
	assert.Equal(t, 10, p.bar.Current)
}

func TestProgressBar_NeverRegresses(t *testing.T) {
	// Concurrent workers can deliver completed counts out of order; the
	// displayed count must only ever move forward.
	p := newTestBar(t, 10)
	defer p.Stop()

	p.Update(4, 10)
	require.Equal(t, 4, p.bar.Current)

	// A stale notification from a slower worker arrives late.
	p.Update(2, 10)
	assert.Equal(t, 4, p.bar.Current)

	// A duplicate of the current count is dropped too.
	p.Update(4, 10)
	assert.Equal(t, 4, p.bar.Current)

	p.Update(6, 10)
	assert.Equal(t, 6, p.bar.Current)
}
