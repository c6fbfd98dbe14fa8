package templating

import (
	"fmt"
	"path"
	"time"

	"github.com/valyala/fasttemplate"
)

// Default message templates.
const (
	DefaultCommitMessage = "Update {{path}} at {{timestamp}}"
	DefaultPRTitle       = "Automated CSV Update ({{filename}})"
	DefaultPRBody        = "This PR was created automatically " +
		"by the CSV editor."
)

// Templates holds the message templates of a revision.
// Empty fields fall back to the defaults.
type Templates struct {
	CommitMessage string `yaml:"commit_message"`
	PRTitle       string `yaml:"pr_title"`
	PRBody        string `yaml:"pr_body"`
}

// WithDefaults returns t with empty fields replaced by
// the default templates.
func (t Templates) WithDefaults() Templates {
	if t.CommitMessage == "" {
		t.CommitMessage = DefaultCommitMessage
	}

	if t.PRTitle == "" {
		t.PRTitle = DefaultPRTitle
	}

	if t.PRBody == "" {
		t.PRBody = DefaultPRBody
	}

	return t
}

// Engine renders message templates.
type Engine struct {
	StartTag string
	EndTag   string
}

// tags returns the configured start/end tags, falling
// back to double-brace defaults.
func (en *Engine) tags() (string, string) {
	startTag := en.StartTag
	if startTag == "" {
		startTag = "{{"
	}

	endTag := en.EndTag
	if endTag == "" {
		endTag = "}}"
	}

	return startTag, endTag
}

// Render substitutes vars into tpl. Unknown tags are
// kept verbatim.
func (en *Engine) Render(
	tpl string,
	vars map[string]interface{},
) string {
	startTag, endTag := en.tags()

	return fasttemplate.ExecuteStringStd(
		tpl, startTag, endTag, vars,
	)
}

// Validate reports templates with unbalanced tags.
func (en *Engine) Validate(t Templates) error {
	const errCtx = "validating templates"

	startTag, endTag := en.tags()

	for name, tpl := range map[string]string{
		"commit_message": t.CommitMessage,
		"pr_title":       t.PRTitle,
		"pr_body":        t.PRBody,
	} {
		if _, err := fasttemplate.NewTemplate(
			tpl, startTag, endTag,
		); err != nil {
			return fmt.Errorf(
				"%s: %s: %w", errCtx, name, err,
			)
		}
	}

	return nil
}

// Vars builds the variable set available to revision
// templates.
//
//	path       repository-relative file path
//	filename   last element of path
//	dir        directory of path
//	user       session identity
//	branch     revision branch name
//	timestamp  RFC 3339 UTC time of the submission
//	date       YYYY-MM-DD of the submission
func Vars(
	filePath string,
	user string,
	branch string,
	at time.Time,
) map[string]interface{} {
	at = at.UTC()

	return map[string]interface{}{
		"path":      filePath,
		"filename":  path.Base(filePath),
		"dir":       path.Dir(filePath),
		"user":      user,
		"branch":    branch,
		"timestamp": at.Format(time.RFC3339),
		"date":      at.Format(time.DateOnly),
	}
}
