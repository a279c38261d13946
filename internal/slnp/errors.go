package slnp

import "fmt"

// ErrorType identifies an error condition on the wire. Engine errors and
// handler-defined business errors share the same namespace.
type ErrorType string

// Engine error types.
const (
	ErrEndCommandLacking ErrorType = "SLNP_END_COMMAND_LACKING"
	ErrReqFormat         ErrorType = "SLNP_REQ_FORMAT_ERROR"
	ErrFrameTooLarge     ErrorType = "SLNP_FRAME_TOO_LARGE"
	ErrCmdNotImplemented ErrorType = "SLNP_CMD_NOT_IMPLEMENTED"
	ErrMandParamLacking  ErrorType = "SLNP_MAND_PARAM_LACKING"
	ErrParamLevelWrong   ErrorType = "SLNP_PARAM_LEVEL_WRONG"
	ErrParamValueInvalid ErrorType = "SLNP_PARAM_VALUE_NOT_VALID"
	ErrParamUnspecified  ErrorType = "SLNP_PARAM_UNSPECIFIED"
	ErrNotLoggedIn       ErrorType = "SLNP_NOT_LOGGED_IN"
	ErrCmdExecution      ErrorType = "SLNP_CMD_EXECUTION_ERROR"
)

// Business error types returned by command handlers. ErrPatronNotFound is
// not produced by the bundled handlers; it is kept for handlers that check
// patrons against a catalog.
const (
	ErrLoginFailed     ErrorType = "SLNP_LOGIN_FAILED"
	ErrPatronNotFound  ErrorType = "SLNP_PATRON_NOT_FOUND"
	ErrNoAvailableItem ErrorType = "SLNP_NO_AVAILABLE_ITEMS"
	ErrOrderExists     ErrorType = "SLNP_ORDER_EXISTS"
	ErrOrderNotFound   ErrorType = "SLNP_ORDER_NOT_FOUND"
)

// Error is a protocol level error. Text goes on the wire, Diagnostic is only
// ever written to the server log.
type Error struct {
	Type       ErrorType
	Text       string
	Diagnostic string
}

// NewError builds an Error with a formatted wire text.
func NewError(typ ErrorType, format string, args ...any) *Error {
	return &Error{Type: typ, Text: fmt.Sprintf(format, args...)}
}

// WithDiagnostic returns a copy of e carrying an internal diagnostic message.
func (e *Error) WithDiagnostic(diag string) *Error {
	cp := *e
	cp.Diagnostic = diag
	return &cp
}

func (e *Error) Error() string {
	if e.Text == "" {
		return string(e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Text)
}

// Status is the numeric code and optional label an ErrorType renders with.
type Status struct {
	Code  int
	Label string
}

const (
	labelSyntax = "SLNPSyntaxError"
	labelEval   = "SLNPEvalError"
)

// undefinedStatus is used for error types missing from the code table.
var undefinedStatus = Status{Code: 510, Label: labelEval}

const undefinedText = "Undefined error"

var statusTable = map[ErrorType]Status{
	ErrEndCommandLacking: {501, labelSyntax},
	ErrReqFormat:         {501, labelSyntax},
	ErrFrameTooLarge:     {501, labelSyntax},
	ErrCmdNotImplemented: {510, labelEval},
	ErrMandParamLacking:  {510, labelEval},
	ErrParamLevelWrong:   {510, labelEval},
	ErrParamValueInvalid: {510, labelEval},
	ErrParamUnspecified:  {510, labelEval},
	ErrNotLoggedIn:       {510, labelEval},
	ErrCmdExecution:      {510, labelEval},
	ErrLoginFailed:       {520, ""},
	ErrPatronNotFound:    {520, ""},
	ErrNoAvailableItem:   {520, ""},
	ErrOrderExists:       {520, ""},
	ErrOrderNotFound:     {520, ""},
}

// LookupStatus returns the wire status for typ.
func LookupStatus(typ ErrorType) (Status, bool) {
	st, ok := statusTable[typ]
	return st, ok
}
