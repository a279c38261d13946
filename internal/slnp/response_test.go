package slnp

import (
	"strings"
	"testing"
)

func TestRenderOrdering(t *testing.T) {
	resp := Success(
		Value("a", "1"),
		Group("b", Value("c", "2"), Value("d", "3")),
		Value("e", "4"),
	)

	got := strings.Split(strings.TrimSuffix(Render("CMD", resp), "\n"), "\n")
	want := []string{
		"600 CMD",
		"601 a:1",
		"604 SLNPBegin",
		"603 c:2",
		"603 d:3",
		"605 SLNPEnd",
		"601 e:4",
		"250 SLNPEndOfData",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Render() lines = %q, want %q", got, want)
	}
}

func TestRenderNestedGroups(t *testing.T) {
	resp := Success(Group("outer",
		Value("x", "1"),
		Group("inner", Value("y", "2")),
		Group("empty"),
	))
	want := "600 CMD\n" +
		"604 SLNPBegin\n603 x:1\n" +
		"604 SLNPBegin\n603 y:2\n605 SLNPEnd\n" +
		"604 SLNPBegin\n605 SLNPEnd\n" +
		"605 SLNPEnd\n" +
		"250 SLNPEndOfData\n"
	if got := Render("CMD", resp); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderEscapesValues(t *testing.T) {
	got := Render("CMD", Success(Value("Note", "a\nb\\c")))
	if !strings.Contains(got, "601 Note:a\\nb\\\\c\n") {
		t.Errorf("Render() = %q, want escaped value", got)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "labelled code",
			err:  NewError(ErrMandParamLacking, "Mandatory parameter %s lacking", "P"),
			want: "510 SLNPEvalError: Mandatory parameter P lacking\n",
		},
		{
			name: "syntax error",
			err:  NewError(ErrReqFormat, "Syntax error in line 2: x"),
			want: "501 SLNPSyntaxError: Syntax error in line 2: x\n",
		},
		{
			name: "unlabelled business error",
			err:  NewError(ErrPatronNotFound, "Patron 12 not found"),
			want: "520 Patron 12 not found\n",
		},
		{
			name: "unknown error type",
			err:  NewError("SLNP_SOMETHING_ELSE", "whatever"),
			want: "510 SLNPEvalError: Undefined error\n",
		},
		{
			name: "diagnostic stays off the wire",
			err:  NewError(ErrCmdExecution, "boom").WithDiagnostic("stack trace here"),
			want: "510 SLNPEvalError: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render("CMD", Failure(tt.err)); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseCode(t *testing.T) {
	if got := Success().Code(); got != 600 {
		t.Errorf("Success().Code() = %d, want 600", got)
	}
	if got := Failure(NewError(ErrOrderExists, "dup")).Code(); got != 520 {
		t.Errorf("Failure().Code() = %d, want 520", got)
	}
	if got := Failure(NewError("X", "")).Code(); got != 510 {
		t.Errorf("Failure(unknown).Code() = %d, want 510", got)
	}
}
