package slnp

import (
	"fmt"
	"strings"
)

// Response status codes.
const (
	CodeBegin      = 600
	CodeParam      = 601
	CodeGroupParam = 603
	CodeGroupBegin = 604
	CodeGroupEnd   = 605
	CodeEndOfData  = 250
)

// Param is one response parameter. A non-nil Group turns the parameter into
// a repeating group; its Name is not sent on the wire.
type Param struct {
	Name  string
	Value string
	Group []Param
}

// Value returns a flat parameter.
func Value(name, value string) Param {
	return Param{Name: name, Value: value}
}

// Group returns a nested group parameter.
func Group(name string, children ...Param) Param {
	if children == nil {
		children = []Param{}
	}
	return Param{Name: name, Group: children}
}

// Response is the outcome of one command: either Params or Err.
type Response struct {
	Params []Param
	Err    *Error
}

// Success wraps params in a successful Response.
func Success(params ...Param) Response {
	return Response{Params: params}
}

// Failure wraps err in an error Response.
func Failure(err *Error) Response {
	return Response{Err: err}
}

// Render serializes resp for command into wire text.
func Render(command string, resp Response) string {
	var b strings.Builder
	if resp.Err != nil {
		renderError(&b, resp.Err)
		return b.String()
	}

	fmt.Fprintf(&b, "%d %s\n", CodeBegin, command)
	for _, p := range resp.Params {
		if p.Group != nil {
			renderGroup(&b, p.Group)
			continue
		}
		fmt.Fprintf(&b, "%d %s:%s\n", CodeParam, Escape(p.Name), Escape(p.Value))
	}
	fmt.Fprintf(&b, "%d %s\n", CodeEndOfData, TokenEndOfData)
	return b.String()
}

func renderGroup(b *strings.Builder, children []Param) {
	fmt.Fprintf(b, "%d %s\n", CodeGroupBegin, TokenBegin)
	for _, c := range children {
		if c.Group != nil {
			renderGroup(b, c.Group)
			continue
		}
		fmt.Fprintf(b, "%d %s:%s\n", CodeGroupParam, Escape(c.Name), Escape(c.Value))
	}
	fmt.Fprintf(b, "%d %s\n", CodeGroupEnd, TokenEnd)
}

func renderError(b *strings.Builder, err *Error) {
	st, ok := LookupStatus(err.Type)
	if !ok {
		fmt.Fprintf(b, "%d %s: %s\n", undefinedStatus.Code, undefinedStatus.Label, undefinedText)
		return
	}
	if st.Label != "" {
		fmt.Fprintf(b, "%d %s: %s\n", st.Code, st.Label, Escape(err.Text))
		return
	}
	fmt.Fprintf(b, "%d %s\n", st.Code, Escape(err.Text))
}

// Code returns the numeric status a Response renders with.
func (r Response) Code() int {
	if r.Err == nil {
		return CodeBegin
	}
	if st, ok := LookupStatus(r.Err.Type); ok {
		return st.Code
	}
	return undefinedStatus.Code
}
