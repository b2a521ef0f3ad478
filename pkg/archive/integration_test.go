//go:build integration

package archive_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textiles-lab/jacquard/internal/testutil"
	"github.com/textiles-lab/jacquard/pkg/archive"
)

// TestArchiveAgainstRealRedis exercises the commands miniredis only
// approximates: MULTI/EXEC pipelines and Pub/Sub delivery.
func TestArchiveAgainstRealRedis(t *testing.T) {
	url := testutil.StartRedis(t)

	client, err := archive.NewClientFromURL(url, "integration")
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx))

	sub, err := client.SubscribeProgramEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	text := ";!knitout-2\n;;Carriers: 1 2 3 4 5 6 7 8 9 10\nin 1\n"
	sum := sha256.Sum256([]byte(text))
	p := &archive.Program{
		ID:           uuid.NewString(),
		Digest:       hex.EncodeToString(sum[:]),
		Name:         "integration",
		Width:        2,
		Height:       2,
		Carriers:     []int{1},
		Instructions: 1,
		Knitout:      text,
		CreatedAtMs:  time.Now().UnixMilli(),
	}

	_, created, err := client.SaveProgram(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	select {
	case event := <-sub.Events():
		assert.Equal(t, p.ID, event.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for program event")
	}

	got, err := client.GetProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	ids, err := client.ScanPrograms(ctx, p.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)
}
