package prer_test

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/gitops/prer"
)

func frozenNamer(prefix string) *prer.Namer {
	nm := prer.NewNamer(prefix)
	nm.Now = func() time.Time {
		return time.Date(2026, 10, 16, 9, 30, 0, 42, time.UTC)
	}
	nm.Random = func() string { return "cafe0001" }

	return nm
}

func TestNamer_format(t *testing.T) {
	t.Parallel()

	nm := frozenNamer("update-csv-")

	assert.Equal(
		t,
		"update-csv-20261016T093000000000042-1-cafe0001",
		nm.Next(),
	)
	assert.Equal(
		t,
		"update-csv-20261016T093000000000042-2-cafe0001",
		nm.Next(),
	)
}

func TestNamer_unique_within_one_tick(t *testing.T) {
	t.Parallel()

	nm := frozenNamer("update-csv-")
	seen := make(map[string]struct{}, 1000)

	for range 1000 {
		name := nm.Next()

		_, dup := seen[name]
		require.False(t, dup, "duplicate branch name %s", name)

		seen[name] = struct{}{}
	}

	assert.Len(t, seen, 1000)
}

func TestNamer_unique_concurrently(t *testing.T) {
	t.Parallel()

	nm := frozenNamer("p-")

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = make(map[string]struct{})
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 125 {
				name := nm.Next()

				mu.Lock()
				seen[name] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, seen, 1000)
}

func TestNamer_default_is_valid_ref_name(t *testing.T) {
	t.Parallel()

	name := prer.NewNamer(prer.DefaultBranchPrefix).Next()

	assert.Regexp(
		t,
		regexp.MustCompile(`^update-csv-\d{8}T\d{15}-1-[0-9a-f]{8}$`),
		name,
	)
}

func TestBranchNamerFunc(t *testing.T) {
	t.Parallel()

	fn := prer.BranchNamerFunc(func() string { return "fixed" })

	assert.Equal(t, "fixed", fn.Next())
}
