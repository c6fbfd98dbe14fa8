package commitmsg

import (
	"log/slog"
	"strings"
)

// Trailer keys written by Generate.
const (
	TrailerPath   = "Edited-Path"
	TrailerAuthor = "Edited-By"
)

// Message is the structured form of a revision commit
// message.
type Message struct {
	// Summary is the first line.
	Summary string
	// Body is optional free text.
	Body string
	// Path is the repository-relative file edited.
	Path string
	// Author is the session identity that submitted
	// the revision. Empty omits the trailer.
	Author string
}

// Generate renders m as a git commit message: summary,
// optional body, then a trailer block.
func Generate(m Message) string {
	var sb strings.Builder

	sb.WriteString(oneLine(m.Summary))
	sb.WriteString("\n\n")

	if body := strings.TrimSpace(m.Body); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	sb.WriteString(TrailerPath)
	sb.WriteString(": ")
	sb.WriteString(oneLine(m.Path))
	sb.WriteByte('\n')

	if m.Author != "" {
		sb.WriteString(TrailerAuthor)
		sb.WriteString(": ")
		sb.WriteString(oneLine(m.Author))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// ExtractTrailers parses the trailer block, i.e. the last
// paragraph of msg when every line in it is "Key: value".
// Returns nil when msg has no trailer block.
func ExtractTrailers(msg string) map[string]string {
	paragraphs := strings.Split(
		strings.TrimSpace(msg), "\n\n",
	)
	if len(paragraphs) < 2 {
		return nil
	}

	last := paragraphs[len(paragraphs)-1]
	trailers := make(map[string]string)

	for _, line := range strings.Split(last, "\n") {
		key, val, ok := strings.Cut(line, ": ")
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			slog.Debug(
				"commit message has no trailer block",
				"line", line,
			)

			return nil
		}

		trailers[key] = val
	}

	return trailers
}

// Parse reverses Generate.
func Parse(msg string) Message {
	trailers := ExtractTrailers(msg)

	paragraphs := strings.Split(strings.TrimSpace(msg), "\n\n")

	m := Message{
		Summary: paragraphs[0],
		Path:    trailers[TrailerPath],
		Author:  trailers[TrailerAuthor],
	}

	end := len(paragraphs)
	if trailers != nil {
		end--
	}

	if end > 1 {
		m.Body = strings.Join(paragraphs[1:end], "\n\n")
	}

	return m
}

// oneLine collapses newlines so a value cannot break the
// message structure.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
