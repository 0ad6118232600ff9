package integritykit

import (
	"fmt"
	"strings"
)

// FilenameRule identifies which safety rule rejected a filename
type FilenameRule string

const (
	RuleEmptyName     FilenameRule = "empty"
	RuleNameTooLong   FilenameRule = "too_long"
	RuleNullByte      FilenameRule = "null_byte"
	RuleEncodedSeq    FilenameRule = "encoded_sequence"
	RulePathTraversal FilenameRule = "path_traversal"
	RuleAbsolutePath  FilenameRule = "absolute_path"
	RuleReservedName  FilenameRule = "reserved_name"
	RuleShellMetachar FilenameRule = "shell_metachar"
)

// MaxFilenameLength is the maximum accepted filename length in bytes.
const MaxFilenameLength = 255

// FilenameError reports which rule rejected an untrusted filename.
// It unwraps to ErrInvalidName so callers can match with errors.Is.
type FilenameError struct {
	// Rule categorizes the rejection for programmatic handling.
	Rule FilenameRule

	// Name is the rejected filename.
	Name string

	// Detail is the human-readable rejection reason.
	Detail string
}

// Error implements the error interface
func (e *FilenameError) Error() string {
	return fmt.Sprintf("filename rejected (%s): %s", e.Rule, e.Detail)
}

// Unwrap returns ErrInvalidName
func (e *FilenameError) Unwrap() error {
	return ErrInvalidName
}

// reservedNames are device-style names that must never appear as a path
// component, with or without an extension, on any supported platform.
var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// shellMetachars are injection markers rejected even though filenames are
// never passed to a shell. Defense in depth against downstream misuse.
var shellMetachars = []string{"|", ";", "`", "$(", "&&", ">", "<", "\n", "\r"}

// encodedSequences are percent-encoded control or traversal sequences,
// matched case-insensitively.
var encodedSequences = []string{"%00", "%0a", "%0d", "%2e%2e", "%2f", "%5c"}

// ValidateFilename checks an untrusted filename against path-traversal,
// reserved-device-name, and shell-metacharacter attacks before any
// filesystem interaction. It is a pure predicate with no side effects.
//
// All rules run in a fixed, deterministic order; the first match wins and is
// reported in the returned *FilenameError.
func ValidateFilename(name string) error {
	if len(name) == 0 {
		return &FilenameError{Rule: RuleEmptyName, Name: name, Detail: "empty filename"}
	}

	if len(name) > MaxFilenameLength {
		return &FilenameError{
			Rule:   RuleNameTooLong,
			Name:   name,
			Detail: fmt.Sprintf("filename exceeds maximum length of %d bytes", MaxFilenameLength),
		}
	}

	if strings.ContainsRune(name, 0) {
		return &FilenameError{Rule: RuleNullByte, Name: name, Detail: "filename contains a null byte"}
	}

	lower := strings.ToLower(name)
	for _, seq := range encodedSequences {
		if strings.Contains(lower, seq) {
			return &FilenameError{
				Rule:   RuleEncodedSeq,
				Name:   name,
				Detail: fmt.Sprintf("filename contains percent-encoded sequence %q", seq),
			}
		}
	}

	// Split on both separator styles so traversal and reserved-name checks
	// see every component regardless of origin platform.
	components := strings.FieldsFunc(name, func(r rune) bool {
		return r == '/' || r == '\\'
	})

	for _, component := range components {
		if component == ".." {
			return &FilenameError{
				Rule:   RulePathTraversal,
				Name:   name,
				Detail: "filename contains a parent-directory traversal segment",
			}
		}
	}

	if name[0] == '/' || name[0] == '\\' {
		return &FilenameError{Rule: RuleAbsolutePath, Name: name, Detail: "filename is an absolute path"}
	}
	if len(name) > 1 && name[1] == ':' {
		return &FilenameError{Rule: RuleAbsolutePath, Name: name, Detail: "filename contains a drive letter"}
	}

	for _, component := range components {
		// Device names are reserved with or without an extension; the
		// comparison uses the base name up to the first dot.
		base := strings.ToLower(component)
		if dot := strings.IndexByte(base, '.'); dot > 0 {
			base = base[:dot]
		}
		if reservedNames[base] {
			return &FilenameError{
				Rule:   RuleReservedName,
				Name:   name,
				Detail: fmt.Sprintf("filename component %q is a reserved device name", component),
			}
		}
	}

	for _, meta := range shellMetachars {
		if strings.Contains(name, meta) {
			return &FilenameError{
				Rule:   RuleShellMetachar,
				Name:   name,
				Detail: fmt.Sprintf("filename contains shell metacharacter %q", meta),
			}
		}
	}

	return nil
}
