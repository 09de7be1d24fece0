/*
Package errors implements the error values shared by all extensions.

Reuse the root errors declared in this package whenever possible, and
register extension specific ones with Register(code, description) only
when callers need to tell them apart. Codes are exposed to clients through
ABCIInfo.

Create errors with ErrXyz.New("...") or errors.Wrap(err, "...") at the
point of failure so that a stacktrace is attached. Only the innermost wrap
records the stack.

	%s is just the error message
	%+v is the message with the full stack trace
*/
package errors
