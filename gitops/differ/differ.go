package differ

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown
// around each hunk.
const DefaultContext = 3

// devNull names the missing side of an added or removed
// file, as git does.
const devNull = "/dev/null"

// Unified returns a unified diff turning before into
// after for the file at path. A nil before means the
// file does not exist yet. Identical inputs yield an
// empty string.
func Unified(
	path string,
	before []byte,
	after []byte,
) (string, error) {
	const errCtx = "rendering unified diff"

	if before != nil && string(before) == string(after) {
		return "", nil
	}

	from := "a/" + path
	if before == nil {
		from = devNull
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: from,
		ToFile:   "b/" + path,
		Context:  DefaultContext,
	}

	if before == nil {
		ud.A = nil
	}

	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return out, nil
}

// Stats counts added and deleted lines between before
// and after.
func Stats(before []byte, after []byte) (int, int) {
	var a, b []string

	if len(before) > 0 {
		a = difflib.SplitLines(string(before))
	}

	if len(after) > 0 {
		b = difflib.SplitLines(string(after))
	}

	var additions, deletions int

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'r':
			deletions += op.I2 - op.I1
			additions += op.J2 - op.J1
		case 'd':
			deletions += op.I2 - op.I1
		case 'i':
			additions += op.J2 - op.J1
		default:
			continue
		}
	}

	return additions, deletions
}
