package slnp

import (
	"regexp"
	"testing"

	"github.com/stuffbucket/slnpd/internal/schema"
)

func testCommand(t *testing.T) *schema.Command {
	t.Helper()
	reg, err := schema.New(schema.Command{
		Name:    "SLNPFoo",
		Handler: "test.foo",
		Params: []schema.Param{
			{Name: "P", Level: 1, Pattern: regexp.MustCompile(`^\s*(.+?)\s*$`), Mandatory: true},
			{Name: "Num", Level: 1, Pattern: regexp.MustCompile(`^\s*(\d+)\s*$`)},
			{Name: "Sub", Level: 2, Pattern: regexp.MustCompile(`^\s*(.*?)\s*$`)},
		},
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v", err)
	}
	cmd, ok := reg.Lookup("SLNPFoo")
	if !ok {
		t.Fatal("Lookup(SLNPFoo) missing")
	}
	return cmd
}

func TestValidateMandatory(t *testing.T) {
	cmd := testCommand(t)

	t.Run("missing mandatory parameter fails", func(t *testing.T) {
		tree := Validate(Parse("SLNPFoo\nNum:1\nSLNPEndCommand\n"), cmd, false)
		if tree.Valid {
			t.Fatal("Validate() valid, want invalid")
		}
		if tree.Err.Type != ErrMandParamLacking {
			t.Errorf("Err.Type = %s, want %s", tree.Err.Type, ErrMandParamLacking)
		}
	})

	t.Run("mandatory parameter on wrong level does not count", func(t *testing.T) {
		tree := Validate(Parse("SLNPFoo\nSLNPBegin\nP:x\nSLNPEnd\nSLNPEndCommand\n"), cmd, false)
		if tree.Err == nil || tree.Err.Type != ErrMandParamLacking {
			t.Errorf("Err = %v, want %s", tree.Err, ErrMandParamLacking)
		}
	})

	t.Run("present mandatory parameter passes", func(t *testing.T) {
		tree := Validate(Parse("SLNPFoo\nP:x\nSLNPEndCommand\n"), cmd, false)
		if !tree.Valid {
			t.Errorf("Validate() invalid: %v", tree.Err)
		}
	})
}

func TestValidateCaptureNormalization(t *testing.T) {
	cmd := testCommand(t)
	tree := Validate(Parse("SLNPFoo\nP:   hello world  \nNum: 42\nSLNPEndCommand\n"), cmd, false)
	if !tree.Valid {
		t.Fatalf("Validate() invalid: %v", tree.Err)
	}
	entries := tree.Entries()
	if entries[0].Value != "hello world" {
		t.Errorf("P = %q, want %q", entries[0].Value, "hello world")
	}
	if entries[1].Value != "42" {
		t.Errorf("Num = %q, want %q", entries[1].Value, "42")
	}
}

func TestValidateErrors(t *testing.T) {
	cmd := testCommand(t)

	tests := []struct {
		name   string
		raw    string
		strict bool
		want   ErrorType
		line   int
	}{
		{"value does not match pattern", "SLNPFoo\nP:x\nNum:abc\nSLNPEndCommand\n", false, ErrParamValueInvalid, 3},
		{"level-one parameter inside group", "SLNPFoo\nP:x\nSLNPBegin\nNum:1\nSLNPEnd\nSLNPEndCommand\n", false, ErrParamLevelWrong, 4},
		{"group parameter at top level", "SLNPFoo\nP:x\nSub:y\nSLNPEndCommand\n", false, ErrParamLevelWrong, 3},
		{"unknown parameter in strict mode", "SLNPFoo\nP:x\nExtra:1\nSLNPEndCommand\n", true, ErrParamUnspecified, 3},
		{"first failure wins", "SLNPFoo\nP:x\nNum:bad\nSub:wrong level\nSLNPEndCommand\n", false, ErrParamValueInvalid, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := Validate(Parse(tt.raw), cmd, tt.strict)
			if tree.Valid {
				t.Fatal("Validate() valid, want invalid")
			}
			if tree.Err.Type != tt.want {
				t.Errorf("Err.Type = %s, want %s", tree.Err.Type, tt.want)
			}
			if tree.ErrLine != tt.line {
				t.Errorf("ErrLine = %d, want %d", tree.ErrLine, tt.line)
			}
		})
	}
}

func TestValidateIgnoresUnknownByDefault(t *testing.T) {
	cmd := testCommand(t)
	tree := Validate(Parse("SLNPFoo\nP:x\nExtra: raw \nSLNPEndCommand\n"), cmd, false)
	if !tree.Valid {
		t.Fatalf("Validate() invalid: %v", tree.Err)
	}
	if got := tree.Entries()[1].Value; got != " raw " {
		t.Errorf("unknown parameter rewritten to %q, want untouched", got)
	}
}

func TestValidateUnknownCommand(t *testing.T) {
	tree := Validate(Parse("SLNPFoo\nSLNPEndCommand\n"), nil, false)
	if tree.Valid {
		t.Fatal("Validate() valid, want invalid")
	}
	if tree.Err.Type != ErrCmdNotImplemented {
		t.Errorf("Err.Type = %s, want %s", tree.Err.Type, ErrCmdNotImplemented)
	}
}

func TestValidateKeepsParseError(t *testing.T) {
	tree := Validate(Parse("SLNPFoo\nSLNPEnd\nSLNPEndCommand\n"), testCommand(t), false)
	if tree.Err.Type != ErrReqFormat {
		t.Errorf("Err.Type = %s, want %s", tree.Err.Type, ErrReqFormat)
	}
}
