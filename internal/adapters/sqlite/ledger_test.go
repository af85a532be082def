package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/slprescale/internal/domain"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_RecordAndFind(t *testing.T) {
	ctx := context.Background()
	l := openLedger(t)

	run, err := l.Record(ctx, domain.Run{
		Kind:              domain.RunRescale,
		Input:             "/data/in.slp",
		Output:            "/data/out.slp",
		InputFingerprint:  "aaa",
		OutputFingerprint: "bbb",
		Scale:             domain.Scale{From: domain.DefaultSource, To: domain.DefaultTarget},
		Points:            12,
		Frames:            3,
		Records:           1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	found, err := l.FindByOutput(ctx, "bbb")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, domain.DefaultTarget, found.Scale.To)
	assert.Equal(t, 12, found.Points)

	missing, err := l.FindByOutput(ctx, "aaa")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := l.FindByOutput(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestLedger_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := openLedger(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, kind := range []string{domain.RunRescale, domain.RunSetShape, domain.RunVideo} {
		_, err := l.Record(ctx, domain.Run{
			Kind:      kind,
			Input:     "in",
			Output:    "out",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, domain.RunVideo, runs[0].Kind)
	assert.Equal(t, domain.RunSetShape, runs[1].Kind)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestLedger_ReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	l, err := Open(path)
	require.NoError(t, err)
	_, err = l.Record(ctx, domain.Run{Kind: domain.RunRescale, Input: "a", Output: "b", OutputFingerprint: "f"})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	found, err := l.FindByOutput(ctx, "f")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.Input)
}
