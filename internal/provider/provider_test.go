package provider

import (
	"errors"
	"testing"

	"github.com/alfawal/LoA/internal/provider/blitz"
	"github.com/alfawal/LoA/internal/provider/opgg"
	"github.com/alfawal/LoA/internal/stats"
	"github.com/alfawal/LoA/internal/webapi"
)

func TestNew(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"op.gg", opgg.Name},
		{"OP.GG", opgg.Name},
		{" Blitz.gg ", blitz.Name},
	}
	client := webapi.NewClient(webapi.Options{})
	for _, tc := range tests {
		p, err := New(tc.in, client, Settings{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", tc.in, err)
		}
		if p.Name() != tc.want {
			t.Fatalf("New(%q).Name() = %q, want %q", tc.in, p.Name(), tc.want)
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("u.gg", webapi.NewClient(webapi.Options{}), Settings{})
	invalid, ok := errors.AsType[*stats.InvalidFormatError](err)
	if !ok {
		t.Fatalf("New(%q) error = %v, want *stats.InvalidFormatError", "u.gg", err)
	}
	if invalid.Kind != "provider" || invalid.Value != "u.gg" {
		t.Fatalf("error = %+v", invalid)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "blitz.gg" || names[1] != "op.gg" {
		t.Fatalf("Names() = %v, want [blitz.gg op.gg]", names)
	}
}
