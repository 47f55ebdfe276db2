package progress

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay_PlainStages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewDisplay(&buf, TerminalCapabilities{})

	resolve := StageInfo{Name: "Resolving baseline", Number: 2, Total: 6}
	judge := StageInfo{Name: "Judging commits", Number: 4, Total: 6}

	d.StartStage(resolve)
	d.CompleteStage(resolve, "v1.2.3 (latest-semver-tag)")
	d.StartStage(judge)
	d.Waiting(true)
	d.Waiting(false)
	d.FailStage(judge, errors.New("rate limited"))
	d.Stop()

	want := "[OK] [2/6] Resolving baseline: v1.2.3 (latest-semver-tag)\n" +
		"[FAIL] [4/6] Judging commits: rate limited\n"
	assert.Equal(t, want, buf.String())
}

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps TerminalCapabilities
		want ProgressSymbols
	}{
		"unicode": {
			caps: TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			want: ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14},
		},
		"ascii": {
			caps: TerminalCapabilities{IsTTY: true},
			want: ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SelectSymbols(tt.caps))
		})
	}
}

func TestDetectTerminalCapabilities_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	t.Setenv("NO_COLOR", "")
	caps := DetectTerminalCapabilities(f)
	assert.False(t, caps.IsTTY)
	assert.False(t, caps.SupportsColor)
	assert.Zero(t, caps.Width)
}
