package digester

import (
	"crypto/sha1" //nolint:gosec // git object ids are sha1 by definition
	"encoding/hex"
	"strconv"
)

// Object kinds understood by ObjectID.
const (
	KindBlob   = "blob"
	KindCommit = "commit"
)

// ObjectID computes the git object id of payload for the
// given object kind, i.e. sha1("<kind> <len>\x00<payload>").
func ObjectID(kind string, payload []byte) string {
	ha := sha1.New() //nolint:gosec // see import

	ha.Write([]byte(kind))
	ha.Write([]byte{' '})
	ha.Write([]byte(strconv.Itoa(len(payload))))
	ha.Write([]byte{0})
	ha.Write(payload)

	return hex.EncodeToString(ha.Sum(nil))
}

// BlobID returns the git blob id of content. It matches
// the "sha" GitHub reports for file contents, so it is a
// valid version token for that content.
func BlobID(content []byte) string {
	return ObjectID(KindBlob, content)
}

// VerifyBlob reports whether content hashes to version.
func VerifyBlob(content []byte, version string) bool {
	return version != "" && BlobID(content) == version
}
