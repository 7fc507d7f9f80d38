package receipts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/log"
)

func newTestFileStore(t *testing.T, retention time.Duration) *FileStore {
	t.Helper()
	s, err := NewFileStore(FileStoreOptions{
		Path:            filepath.Join(t.TempDir(), "receipts.log.jsonl"),
		RetentionMaxAge: retention,
		Logger:          log.Nop(),
	})
	require.NoError(t, err)
	return s
}

func TestFileAddLinksChain(t *testing.T) {
	s := newTestFileStore(t, 0)
	ctx := context.Background()

	first, err := s.Add(ctx, Receipt{FieldTraceID: "t1", FieldHop: 0, FieldTimestamp: "2025-01-01T00:00:00Z"})
	require.NoError(t, err)
	_, linked := first.PrevHash()
	assert.False(t, linked, "first receipt ever must link to null")
	assert.True(t, strings.HasPrefix(first.Hash(), "sha256:"))

	second, err := s.Add(ctx, Receipt{FieldTraceID: "t2", FieldHop: 0, FieldTimestamp: "2025-01-01T00:00:01Z"})
	require.NoError(t, err)
	prev, linked := second.PrevHash()
	require.True(t, linked)
	// the chain is global: t2's receipt links to t1's, across traces
	assert.Equal(t, first.Hash(), prev)
}

func TestFileChainOrderingScenario(t *testing.T) {
	// Append hops 2,0,1 with out-of-order timestamps; chain must come back
	// 0,1,2 while prev hashes still follow global append order.
	s := newTestFileStore(t, 0)
	ctx := context.Background()

	appended := make([]Receipt, 0, 3)
	for _, hop := range []int{2, 0, 1} {
		r, err := s.Add(ctx, Receipt{
			FieldTraceID:   "trace-x",
			FieldHop:       hop,
			FieldTimestamp: fmt.Sprintf("2025-01-01T00:00:0%dZ", hop),
		})
		require.NoError(t, err)
		appended = append(appended, r)
	}

	chain, err := s.Chain(ctx, "trace-x")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	for i, rec := range chain {
		assert.Equal(t, float64(i), hopOrder(rec), "chain must sort by hop")
	}

	// linkage follows append order 2,0,1 not hop order
	_, linked := appended[0].PrevHash()
	assert.False(t, linked)
	for i := 1; i < len(appended); i++ {
		prev, ok := appended[i].PrevHash()
		require.True(t, ok)
		assert.Equal(t, appended[i-1].Hash(), prev)
	}
}

func TestFileChainIdempotentRead(t *testing.T) {
	s := newTestFileStore(t, 0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: i, FieldTimestamp: "2025-01-01T00:00:00Z"})
		require.NoError(t, err)
	}
	a, err := s.Chain(ctx, "t")
	require.NoError(t, err)
	b, err := s.Chain(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFileChainMissingFileIsEmpty(t *testing.T) {
	s := newTestFileStore(t, 0)
	chain, err := s.Chain(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestFileMalformedLinesSkipped(t *testing.T) {
	s := newTestFileStore(t, 0)
	ctx := context.Background()

	first, err := s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 0, FieldTimestamp: "2025-01-01T00:00:00Z"})
	require.NoError(t, err)

	// corrupt the log with a non-JSON line
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{this is not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	chain, err := s.Chain(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, chain, 1)

	// the next append links past the garbage to the last parsable receipt
	second, err := s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 1, FieldTimestamp: "2025-01-01T00:00:01Z"})
	require.NoError(t, err)
	prev, ok := second.PrevHash()
	require.True(t, ok)
	assert.Equal(t, first.Hash(), prev)
}

func TestFilePruningByAge(t *testing.T) {
	s := newTestFileStore(t, time.Hour)
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339Nano)
	_, err := s.Add(ctx, Receipt{FieldTraceID: "old-trace", FieldHop: 0, FieldTimestamp: old})
	require.NoError(t, err)

	fresh, err := s.Add(ctx, Receipt{FieldTraceID: "new-trace", FieldHop: 0, FieldTimestamp: NowISO()})
	require.NoError(t, err)

	// the old receipt was pruned before linking, so the fresh one is first
	_, linked := fresh.PrevHash()
	assert.False(t, linked, "pruned log should leave a null link")

	chain, err := s.Chain(ctx, "old-trace")
	require.NoError(t, err)
	assert.Empty(t, chain, "pruned receipts must not come back")

	chain, err = s.Chain(ctx, "new-trace")
	require.NoError(t, err)
	assert.Len(t, chain, 1)
}

func TestFilePruningKeepsUnparsableTimestamps(t *testing.T) {
	s := newTestFileStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 0, FieldTimestamp: "not-a-time"})
	require.NoError(t, err)
	_, err = s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 1, FieldTimestamp: NowISO()})
	require.NoError(t, err)

	chain, err := s.Chain(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, chain, 2, "receipts without a usable ts are retained")
}

func TestFileRetentionDisabled(t *testing.T) {
	s := newTestFileStore(t, 0)
	ctx := context.Background()
	ancient := "2000-01-01T00:00:00Z"
	_, err := s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 0, FieldTimestamp: ancient},
	)
	require.NoError(t, err)
	_, err = s.Add(ctx, Receipt{FieldTraceID: "t", FieldHop: 1, FieldTimestamp: NowISO()})
	require.NoError(t, err)
	chain, err := s.Chain(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, chain, 2)
}

func TestFileAddToleratesMissingFields(t *testing.T) {
	s := newTestFileStore(t, 0)
	stored, err := s.Add(context.Background(), Receipt{"payload": map[string]any{"n": 1}})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Hash())
}

func TestFileChainStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test")
	}
	s := newTestFileStore(t, 0)
	ctx := context.Background()

	const total = 1200
	prev := ""
	for i := 0; i < total; i++ {
		r, err := s.Add(ctx, Receipt{
			FieldTraceID:   "trace-stress",
			FieldHop:       i,
			FieldTimestamp: "2025-01-01T00:00:00Z",
			"payload":      map[string]any{"n": i},
		})
		require.NoError(t, err)
		got, linked := r.PrevHash()
		if i == 0 {
			require.False(t, linked)
		} else {
			require.Equal(t, prev, got)
		}
		prev = r.Hash()
	}

	chain, err := s.Chain(ctx, "trace-stress")
	require.NoError(t, err)
	require.Len(t, chain, total)
	for i, rec := range chain {
		got, linked := rec.PrevHash()
		if i == 0 {
			require.False(t, linked)
		} else {
			require.Equal(t, chain[i-1].Hash(), got)
		}
	}
}

func TestFileConcurrentAddsKeepChainIntact(t *testing.T) {
	s := newTestFileStore(t, 0)
	ctx := context.Background()

	const workers = 8
	const perWorker = 25
	done := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			for i := 0; i < perWorker; i++ {
				_, err := s.Add(ctx, Receipt{
					FieldTraceID:   fmt.Sprintf("trace-%d", w),
					FieldHop:       i,
					FieldTimestamp: NowISO(),
				})
				if err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(w)
	}
	for w := 0; w < workers; w++ {
		require.NoError(t, <-done)
	}

	records, skipped, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, workers*perWorker)
	rep := VerifyChain(records)
	assert.True(t, rep.OK(), "breaks: %v", rep.Breaks)
}
