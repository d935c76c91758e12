package qlog

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.LevelInfo, &buf)

	log.Info("qsub -N job1 job1.pbs", "job_id", "job1", "memory_mb", 512)

	want := "ℹ️  qsub -N job1 job1.pbs job_id=job1, memory_mb=512\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.LevelWarn, &buf)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	want := "⚠️  shown\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestLogger_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.LevelDebug, &buf).With("job_id", "1abc")

	log.Debug("removed script", "path", "1abc.pbs")

	want := "🔍 removed script job_id=1abc, path=1abc.pbs\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "WARNING", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
