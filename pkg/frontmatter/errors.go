package frontmatter

import "errors"

// ErrNoFrontMatter reports a payload missing its opening or closing
// fence. There is no fallback interpretation of "no metadata".
var ErrNoFrontMatter = errors.New("front matter: missing delimiter")

// InvalidTextError reports a block the structured-text codec rejected.
type InvalidTextError struct {
	Detail string
}

func (e *InvalidTextError) Error() string {
	return "front matter: invalid structured text: " + e.Detail
}
