package digester_test

import (
	"testing"

	"github.com/byte4ever/repo_editor/gitops/digester"

	"github.com/stretchr/testify/assert"
)

func TestBlobID_matches_git_hash_object(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty blob",
			content: "",
			want:    "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		},
		{
			name:    "hello newline",
			content: "hello\n",
			want:    "ce013625030ba8dba906f756967f9e9ca394464a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := digester.BlobID([]byte(tt.content))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectID_kind_changes_id(t *testing.T) {
	t.Parallel()

	payload := []byte("a,b\n1,2\n")

	assert.NotEqual(
		t,
		digester.ObjectID(digester.KindBlob, payload),
		digester.ObjectID(digester.KindCommit, payload),
	)
}

func TestVerifyBlob(t *testing.T) {
	t.Parallel()

	content := []byte("a,b\n1,2\n")
	version := digester.BlobID(content)

	assert.True(t, digester.VerifyBlob(content, version))
	assert.False(t, digester.VerifyBlob([]byte("a,b\n"), version))
	assert.False(t, digester.VerifyBlob(content, ""))
}

func FuzzBlobID(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte(""))
	f.Add([]byte("\x00\xff"))

	f.Fuzz(func(t *testing.T, data []byte) {
		dg := digester.BlobID(data)

		assert.Len(t, dg, 40) // sha1 hex is always 40 chars
		assert.True(t, digester.VerifyBlob(data, dg))
	})
}
