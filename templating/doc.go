// Package templating renders revision commit messages and pull request
// titles and bodies. It uses valyala/fasttemplate with configurable
// delimiters (default "{{" and "}}"); Vars lists the available variables.
package templating
