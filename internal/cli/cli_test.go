package cli

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"eval", "locus", "render", "explore", "serve", "store", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in      string
		id      int
		x, y    float64
		wantErr bool
	}{
		{in: "0=1.5,2", id: 0, x: 1.5, y: 2},
		{in: "12 = -3 , 4.25", id: 12, x: -3, y: 4.25},
		{in: "nope", wantErr: true},
		{in: "1=5", wantErr: true},
		{in: "x=1,2", wantErr: true},
		{in: "1=a,2", wantErr: true},
	}
	for _, tt := range tests {
		id, x, y, err := parseMove(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseMove(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMove(%q) = %v", tt.in, err)
			continue
		}
		if int(id) != tt.id || x != tt.x || y != tt.y {
			t.Errorf("parseMove(%q) = (%d, %g, %g), want (%d, %g, %g)",
				tt.in, id, x, y, tt.id, tt.x, tt.y)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.SetLogLevel(log.DebugLevel)
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}
