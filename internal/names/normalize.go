package names

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

const maxNameLength = 255

var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
	idna.BidiRule(),
)

var (
	errEmptyName  = errors.New("name is empty")
	errEmptyLabel = errors.New("name has an empty label")
	errTooLong    = errors.New("name is too long")
	errWhitespace = errors.New("name contains whitespace")
)

// Normalize applies UTS-46 mapping to a name, case-folding it and rejecting
// disallowed code points. The result stays in Unicode form.
func Normalize(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errEmptyName
	}
	if len(name) > maxNameLength {
		return "", errTooLong
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", errWhitespace
	}

	mapped, err := profile.ToUnicode(name)
	if err != nil {
		return "", fmt.Errorf("invalid name %q: %w", raw, err)
	}
	for _, label := range strings.Split(mapped, ".") {
		if label == "" {
			return "", errEmptyLabel
		}
	}
	return mapped, nil
}
