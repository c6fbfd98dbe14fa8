package prer

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultBranchPrefix prefixes revision branch names.
const DefaultBranchPrefix = "update-csv-"

// branchTimeLayout sorts lexically and stays a valid
// ref name component.
const branchTimeLayout = "20060102T150405"

// BranchNamer produces fresh revision branch names.
type BranchNamer interface {
	Next() string
}

// BranchNamerFunc adapts a plain function to the
// BranchNamer interface.
type BranchNamerFunc func() string

// Next calls f.
func (f BranchNamerFunc) Next() string {
	return f()
}

// Namer builds names of the form
// <prefix><UTC time with nanoseconds>-<seq>-<random>.
// The per-process sequence makes names unique within one
// clock tick; the random part separates processes.
type Namer struct {
	Prefix string
	Now    func() time.Time
	Random func() string

	seq atomic.Uint64
}

// NewNamer returns a Namer using the wall clock and a
// uuid-derived random component.
func NewNamer(prefix string) *Namer {
	return &Namer{
		Prefix: prefix,
		Now:    time.Now,
		Random: randomSuffix,
	}
}

// Next implements BranchNamer. Safe for concurrent use.
func (n *Namer) Next() string {
	now := n.Now().UTC()
	seq := n.seq.Add(1)

	var sb strings.Builder

	sb.WriteString(n.Prefix)
	sb.WriteString(now.Format(branchTimeLayout))

	nanos := strconv.Itoa(now.Nanosecond())
	sb.WriteString(strings.Repeat("0", 9-len(nanos)))
	sb.WriteString(nanos)

	sb.WriteByte('-')
	sb.WriteString(strconv.FormatUint(seq, 36))

	if n.Random != nil {
		if r := n.Random(); r != "" {
			sb.WriteByte('-')
			sb.WriteString(r)
		}
	}

	return sb.String()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
