// Package number converts command-line and wire text into bounded integers.
package number

import (
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrEmpty is returned when there is no text to convert.
	ErrEmpty = errors.New("empty string")
	// ErrSyntax is returned when the text is not a base-10 integer.
	ErrSyntax = errors.New("invalid syntax")
	// ErrRange is returned when the integer does not fit the target type.
	ErrRange = errors.New("value out of range")
)

// ParseInt32 converts text to a signed 32-bit integer.
//
// An optional leading sign is accepted. Surrounding whitespace is not.
func ParseInt32(text string) (int32, error) {
	if text == "" {
		return 0, errors.Wrap(ErrEmpty, "parsing \"\"")
	}

	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errors.Wrapf(ErrRange, "parsing %q", text)
		}

		return 0, errors.Wrapf(ErrSyntax, "parsing %q", text)
	}

	return int32(n), nil
}
