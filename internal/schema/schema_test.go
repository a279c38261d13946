package schema

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestBuiltin(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	for _, name := range []CommandName{"SLNPFLBestellung", "SLNPFLStatus", "SLNPAlive", "SLNPLogin"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("Lookup(%s) missing", name)
		}
	}

	order, _ := reg.Lookup("SLNPFLBestellung")
	if order.Handler != "ill.order" {
		t.Errorf("Handler = %q, want %q", order.Handler, "ill.order")
	}
	p, ok := order.Param("Sigel")
	if !ok || p.Level != 2 {
		t.Errorf("Param(Sigel) = %+v, %v; want level 2", p, ok)
	}
	p, ok = order.Param("BestellId")
	if !ok || !p.Mandatory || p.Level != 1 {
		t.Errorf("Param(BestellId) = %+v, %v; want mandatory level 1", p, ok)
	}

	login, _ := reg.Lookup("SLNPLogin")
	if !login.Login {
		t.Error("SLNPLogin should be marked as login command")
	}
}

func TestCommandsSorted(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	cmds := reg.Commands()
	if len(cmds) != reg.Len() {
		t.Fatalf("Commands() len = %d, want %d", len(cmds), reg.Len())
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i-1].Name > cmds[i].Name {
			t.Errorf("Commands() not sorted at %d: %s > %s", i, cmds[i-1].Name, cmds[i].Name)
		}
	}
}

func TestNewRejects(t *testing.T) {
	capture := regexp.MustCompile(`^(.*)$`)

	tests := []struct {
		name string
		cmds []Command
		want error
	}{
		{
			name: "pattern without capture group",
			cmds: []Command{{Name: "SLNPX", Handler: "h", Params: []Param{{Name: "A", Level: 1, Pattern: regexp.MustCompile(`^.*$`)}}}},
			want: ErrNoCaptureGroup,
		},
		{
			name: "duplicate parameter",
			cmds: []Command{{Name: "SLNPX", Handler: "h", Params: []Param{{Name: "A", Level: 1, Pattern: capture}, {Name: "A", Level: 2, Pattern: capture}}}},
			want: ErrDuplicateParam,
		},
		{
			name: "level zero",
			cmds: []Command{{Name: "SLNPX", Handler: "h", Params: []Param{{Name: "A", Level: 0, Pattern: capture}}}},
			want: ErrInvalidLevel,
		},
		{
			name: "missing handler",
			cmds: []Command{{Name: "SLNPX"}},
			want: ErrNoHandler,
		},
		{
			name: "duplicate command",
			cmds: []Command{{Name: "SLNPX", Handler: "h"}, {Name: "SLNPX", Handler: "h"}},
			want: ErrDuplicateCmd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cmds...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewCopiesParams(t *testing.T) {
	params := []Param{{Name: "A", Level: 1, Pattern: regexp.MustCompile(`(.*)`)}}
	reg, err := New(Command{Name: "SLNPX", Handler: "h", Params: params})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	params[0].Name = "changed"

	cmd, _ := reg.Lookup("SLNPX")
	if _, ok := cmd.Param("A"); !ok {
		t.Error("registry changed after caller mutated its input")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	doc := `commands:
  - name: SLNPEcho
    handler: test.echo
    params:
      - name: Text
        pattern: '^\s*(.*?)\s*$'
        mandatory: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cmd, ok := reg.Lookup("SLNPEcho")
	if !ok {
		t.Fatal("Lookup(SLNPEcho) missing")
	}
	p, _ := cmd.Param("Text")
	if p.Level != 1 {
		t.Errorf("default level = %d, want 1", p.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}
	if _, err := Parse([]byte("commands:\n  - name: SLNPX\n    handler: h\n    params:\n      - name: A\n        pattern: '(['\n")); err == nil {
		t.Error("Parse(bad pattern) error = nil, want error")
	}
	if _, err := Parse([]byte("commands: [")); err == nil {
		t.Error("Parse(bad yaml) error = nil, want error")
	}
}
