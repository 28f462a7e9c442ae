package qtprocess

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrorCode is the display text for one tool exit code.
type ErrorCode struct {
	// Message is the short description of what went wrong.
	Message string

	// Resolution suggests how to fix it. May be empty.
	Resolution string
}

// ErrorCodeTable maps exit codes to display text. It is immutable once
// built and safe to share between processes.
type ErrorCodeTable struct {
	codes map[int]ErrorCode
}

// NewErrorCodeTable builds a table from entries. The map is copied, so later
// changes to entries do not affect the table.
func NewErrorCodeTable(entries map[int]ErrorCode) *ErrorCodeTable {
	codes := make(map[int]ErrorCode, len(entries))
	for code, ec := range entries {
		codes[code] = ec
	}
	return &ErrorCodeTable{codes: codes}
}

// Lookup returns the entry for code.
func (t *ErrorCodeTable) Lookup(code int) (ErrorCode, bool) {
	if t == nil {
		return ErrorCode{}, false
	}
	ec, ok := t.codes[code]
	return ec, ok
}

// Len returns the number of codes in the table.
func (t *ErrorCodeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.codes)
}

// codeFile is the on-disk layout of an error code table.
type codeFile struct {
	Codes []codeEntry `yaml:"codes" validate:"dive"`
}

type codeEntry struct {
	Code       *int   `yaml:"code" validate:"required"`
	Message    string `yaml:"message" validate:"required"`
	Resolution string `yaml:"resolution"`
}

var validate = validator.New()

// LoadErrorCodes reads an error code table from a YAML file of the form
//
//	codes:
//	  - code: 1
//	    message: "lupdate could not parse the project file."
//	    resolution: "Check the .pro file for syntax errors."
//
// Every entry needs a code and a message, and codes must be unique.
func LoadErrorCodes(path string) (*ErrorCodeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read error code file: %w", err)
	}
	return ParseErrorCodes(data)
}

// ParseErrorCodes parses the YAML layout accepted by LoadErrorCodes.
func ParseErrorCodes(data []byte) (*ErrorCodeTable, error) {
	var file codeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse error code YAML: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid error code file: %w", err)
	}

	entries := make(map[int]ErrorCode, len(file.Codes))
	for _, e := range file.Codes {
		if _, dup := entries[*e.Code]; dup {
			return nil, fmt.Errorf("invalid error code file: duplicate code %d", *e.Code)
		}
		entries[*e.Code] = ErrorCode{Message: e.Message, Resolution: e.Resolution}
	}

	return NewErrorCodeTable(entries), nil
}
