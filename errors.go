package toolkit

// Code is a signed, stable status identifier for bus operations.
// Zero is success, negative values are hard failures and positive values
// are advisory conditions (the call may still have produced usable data).
// Subsystems derive their codes from a base offset: bus codes live in the
// 0x1000 range, serial codes in the 0x2000 range (see the serial package).
//
// Code implements error so that advisories and failures travel through
// regular error returns; success is a nil error, never a zero Code.
type Code int32

// General codes.
const (
	ErrFail         Code = -1
	ErrInvalidParam Code = -2
)

// BaseBus is the offset from which bus status codes are derived.
const BaseBus Code = 0x1000

// Bus codes. Negative values are errors, positive values are advisories.
const (
	ErrBusNotInit      Code = -1 * (BaseBus + 1)
	ErrBusTimeout      Code = -1 * (BaseBus + 2)
	ErrBusNoResponse   Code = -1 * (BaseBus + 3)
	ErrBusDataTooLong  Code = -1 * (BaseBus + 4)
	ErrBusNullSettings Code = -1 * (BaseBus + 5)
	ErrBusNullBuffer   Code = -1 * (BaseBus + 6)
	ErrBusUnderRead    Code = BaseBus + 7
	ErrBusNotEnabled   Code = BaseBus + 8
)

func (c Code) Error() string {
	switch c {
	case ErrFail:
		return "operation failed"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrBusNotInit:
		return "bus not initialized"
	case ErrBusTimeout:
		return "bus timeout"
	case ErrBusNoResponse:
		return "bus did not respond"
	case ErrBusDataTooLong:
		return "data too long for bus transfer"
	case ErrBusNullSettings:
		return "bus settings are not set"
	case ErrBusNullBuffer:
		return "nil buffer"
	case ErrBusUnderRead:
		return "bus under read"
	case ErrBusNotEnabled:
		return "bus not enabled"
	}
	return "unknown bus status"
}

// Advisory reports whether the code signals a recoverable or informational
// condition rather than a hard failure.
func (c Code) Advisory() bool { return c > 0 }

// CodeOf extracts a Code from an error. A nil error yields 0; errors that
// do not carry a code collapse to ErrFail.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return ErrFail
}
