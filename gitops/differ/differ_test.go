package differ_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/gitops/differ"
)

func TestUnified_modified_file(t *testing.T) {
	t.Parallel()

	got, err := differ.Unified(
		"data/sample.csv",
		[]byte("a,b\n1,2\n"),
		[]byte("a,b\n1,3\n"),
	)

	require.NoError(t, err)
	assert.Contains(t, got, "--- a/data/sample.csv")
	assert.Contains(t, got, "+++ b/data/sample.csv")
	assert.Contains(t, got, "-1,2")
	assert.Contains(t, got, "+1,3")
}

func TestUnified_new_file(t *testing.T) {
	t.Parallel()

	got, err := differ.Unified(
		"data/sample.csv", nil, []byte("a,b\n1,2\n"),
	)

	require.NoError(t, err)
	assert.Contains(t, got, "--- /dev/null")
	assert.Contains(t, got, "+a,b")
	assert.Contains(t, got, "+1,2")
}

func TestUnified_identical(t *testing.T) {
	t.Parallel()

	got, err := differ.Unified(
		"x.csv", []byte("same\n"), []byte("same\n"),
	)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		before  string
		after   string
		wantAdd int
		wantDel int
	}{
		{
			name:    "new file",
			before:  "",
			after:   "a,b\n1,2\n",
			wantAdd: 2,
			wantDel: 0,
		},
		{
			name:    "one line replaced",
			before:  "a,b\n1,2\n",
			after:   "a,b\n1,3\n",
			wantAdd: 1,
			wantDel: 1,
		},
		{
			name:    "line appended",
			before:  "a,b\n",
			after:   "a,b\n3,4\n",
			wantAdd: 1,
			wantDel: 0,
		},
		{
			name:    "unchanged",
			before:  "a,b\n",
			after:   "a,b\n",
			wantAdd: 0,
			wantDel: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			add, del := differ.Stats(
				[]byte(tt.before), []byte(tt.after),
			)
			assert.Equal(t, tt.wantAdd, add)
			assert.Equal(t, tt.wantDel, del)
		})
	}
}
