package opcerrors

import (
	"errors"
	"strings"
)

// Allocation Errors
var (
	ErrGroupUnsatisfiable = errors.New("G1|GroupUnsatisfiable: No run of consecutive free opcode values below the ceiling can hold the group.")
	ErrOpcodeOverflow     = errors.New("O1|OpcodeOverflow: Largest opcode value exceeds the ceiling; the opcode field is a single byte.")
)

// Configuration Errors
var (
	ErrInvalidConfig = errors.New("C1|InvalidConfig: Generator configuration is not usable.")
	ErrUnknownFormat = errors.New("C2|UnknownFormat: Output format is not one of c, json, yaml, go.")
)

// Verification Errors
var (
	ErrHeaderDrift = errors.New("H1|HeaderDrift: Existing header does not match the regenerated output.")
)

var coded = []error{
	ErrGroupUnsatisfiable,
	ErrOpcodeOverflow,
	ErrInvalidConfig,
	ErrUnknownFormat,
	ErrHeaderDrift,
}

// Sentinel returns the coded error that err wraps, or nil.
func Sentinel(err error) error {
	for _, s := range coded {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// split breaks a sentinel's "CODE|Name: desc" text apart.
func split(err error) (code, name, desc string, ok bool) {
	s := Sentinel(err)
	if s == nil {
		return "", "", "", false
	}
	code, rest, _ := strings.Cut(s.Error(), "|")
	name, desc, _ = strings.Cut(rest, ":")
	return code, strings.TrimSpace(name), strings.TrimSpace(desc), true
}

// GetErrorName returns the sentinel name err wraps, or the message itself.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	if _, name, _, ok := split(err); ok {
		return name
	}
	return err.Error()
}

// GetErrorCode returns the sentinel code err wraps, or "".
func GetErrorCode(err error) string {
	code, _, _, _ := split(err)
	return code
}

// GetErrorCodeWithName returns "Code_Name", e.g. "O1_OpcodeOverflow", or "".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	if code == "" {
		return ""
	}
	return code + "_" + GetErrorName(err)
}

// GetErrorDesc returns the sentinel description err wraps, or "".
func GetErrorDesc(err error) string {
	_, _, desc, _ := split(err)
	return desc
}
