package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Expected log output, got %q", buf.String())
	}

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		if logger := NewLogger(nil); logger == nil {
			t.Error("Expected a logger")
		}
	})

	t.Run("child logger carries key-value pairs", func(t *testing.T) {
		var out bytes.Buffer
		child := WithLogger(NewLogger(&out), "playlist", "p1")
		child.Info("working")
		if !strings.Contains(out.String(), "playlist") {
			t.Errorf("Expected the playlist key in output, got %q", out.String())
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	t.Run("unsupported platform returns an error", func(t *testing.T) {
		original := getRuntime
		defer func() { getRuntime = original }()

		getRuntime = func() string { return "plan9" }
		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("Expected an unsupported platform error, got %v", err)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"n": 1}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(compact) != `{"n":1}` {
		t.Errorf("Unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("Expected indented output: %s", pretty)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{1000, "0:01"},
		{61000, "1:01"},
		{201000, "3:21"},
		{3600000, "60:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
