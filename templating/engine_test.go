package templating_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/templating"
)

func TestRender_defaults(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	vars := templating.Vars(
		"data/sample.csv", "alice", "update-csv-1", at,
	)
	tpl := templating.Templates{}.WithDefaults()

	var en templating.Engine

	assert.Equal(
		t,
		"Update data/sample.csv at 2026-10-16T09:30:00Z",
		en.Render(tpl.CommitMessage, vars),
	)
	assert.Equal(
		t,
		"Automated CSV Update (sample.csv)",
		en.Render(tpl.PRTitle, vars),
	)
	assert.Equal(
		t,
		templating.DefaultPRBody,
		en.Render(tpl.PRBody, vars),
	)
}

func TestRender_custom_tags(t *testing.T) {
	t.Parallel()

	en := templating.Engine{
		StartTag: "<%",
		EndTag:   "%>",
	}

	got := en.Render(
		"Hello <%user%> on <%branch%>!",
		map[string]interface{}{
			"user":   "World",
			"branch": "topic",
		},
	)

	assert.Equal(t, "Hello World on topic!", got)
}

func TestRender_unknown_tag_kept(t *testing.T) {
	t.Parallel()

	var en templating.Engine

	got := en.Render("x {{nope}} y", map[string]interface{}{})

	assert.Equal(t, "x {{nope}} y", got)
}

func TestVars_converts_to_utc(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2026, 1, 1, 1, 0, 0, 0, loc)

	vars := templating.Vars("a/b/c.csv", "u", "br", at)

	assert.Equal(t, "2025-12-31T23:00:00Z", vars["timestamp"])
	assert.Equal(t, "2025-12-31", vars["date"])
	assert.Equal(t, "c.csv", vars["filename"])
	assert.Equal(t, "a/b", vars["dir"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	var en templating.Engine

	require.NoError(t, en.Validate(
		templating.Templates{}.WithDefaults(),
	))

	err := en.Validate(templating.Templates{
		CommitMessage: "Update {{path",
	})
	assert.ErrorContains(t, err, "commit_message")
}
