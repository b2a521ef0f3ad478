package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-shop")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

// newProgram builds a valid program whose digest matches its text.
func newProgram(text string, createdAtMs int64) *Program {
	sum := sha256.Sum256([]byte(text))
	return &Program{
		ID:           uuid.NewString(),
		Digest:       hex.EncodeToString(sum[:]),
		Name:         "swatch",
		Width:        4,
		Height:       2,
		Carriers:     []int{1, 6},
		Instructions: 42,
		Knitout:      text,
		CreatedAtMs:  createdAtMs,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.Equal(t, "test-shop", client.Namespace())
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("parses redis URLs", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewClientFromURL("redis://"+mr.Addr()+"/0", "default")
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects malformed URLs", func(t *testing.T) {
		_, err := NewClientFromURL("http://nope", "default")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid archive URL")
	})
}

func TestSaveAndGetProgram(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	p := newProgram(";!knitout-2\ninhook 1\n", 1000)
	stored, created, err := client.SaveProgram(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, p.ID, stored.ID)

	assert.True(t, mr.Exists(ProgramKey("test-shop", p.ID)))
	got, err := mr.Get(DigestKey("test-shop", p.Digest))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got)

	fetched, err := client.GetProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, fetched)
}

func TestSaveProgramDeduplicatesByDigest(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	first := newProgram(";!knitout-2\nknit + f0 1\n", 1000)
	_, created, err := client.SaveProgram(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	again := newProgram(";!knitout-2\nknit + f0 1\n", 2000)
	stored, created, err := client.SaveProgram(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID, "existing record is returned")

	programs, err := client.ListPrograms(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, programs, 1)
}

func TestSaveProgramConcurrentWritersAgree(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	const writers = 8
	text := ";!knitout-2\nknit - f1 3\n"

	var wg sync.WaitGroup
	stored := make([]*Program, writers)
	created := make([]bool, writers)
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored[i], created[i], errs[i] = client.SaveProgram(ctx, newProgram(text, int64(i)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := range writers {
		require.NoError(t, errs[i], "writer %d", i)
		require.NotNil(t, stored[i], "writer %d", i)
		assert.Equal(t, stored[0].ID, stored[i].ID, "every writer sees the same record")
		assert.Equal(t, text, stored[i].Knitout)
		if created[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	programs, err := client.ListPrograms(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, programs, 1)
}

func TestSaveProgramValidation(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Program)
		wantErr string
	}{
		{"bad id", func(p *Program) { p.ID = "not-a-uuid" }, "invalid id"},
		{"short digest", func(p *Program) { p.Digest = "abc" }, "digest must be 64 hex characters"},
		{"no width", func(p *Program) { p.Width = 0 }, "dimensions must be positive"},
		{"no carriers", func(p *Program) { p.Carriers = nil }, "no carriers"},
		{"no text", func(p *Program) { p.Knitout = "" }, "knitout cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProgram("text "+tt.name, 1)
			tt.mutate(p)
			_, _, err := client.SaveProgram(ctx, p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid program")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetProgramNotFound(t *testing.T) {
	client, _ := setupTestClient(t)

	p, err := client.GetProgram(context.Background(), uuid.NewString())
	assert.Nil(t, p)
	assert.True(t, IsNotFound(err))

	p, err = client.FindByDigest(context.Background(), "0000")
	assert.Nil(t, p)
	assert.True(t, IsNotFound(err))
}

func TestFindByDigest(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	p := newProgram("digest me", 5)
	_, _, err := client.SaveProgram(ctx, p)
	require.NoError(t, err)

	found, err := client.FindByDigest(ctx, p.Digest)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
}

func TestListPrograms(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	var ids []string
	for i, ts := range []int64{3000, 1000, 2000} {
		p := newProgram(string(rune('a'+i)), ts)
		_, _, err := client.SaveProgram(ctx, p)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	t.Run("all programs oldest first", func(t *testing.T) {
		programs, err := client.ListPrograms(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, programs, 3)
		assert.Equal(t, []string{ids[1], ids[2], ids[0]},
			[]string{programs[0].ID, programs[1].ID, programs[2].ID})
	})

	t.Run("bounded range is inclusive", func(t *testing.T) {
		programs, err := client.ListPrograms(ctx, 2000, 3000)
		require.NoError(t, err)
		require.Len(t, programs, 2)
		assert.Equal(t, ids[2], programs[0].ID)
		assert.Equal(t, ids[0], programs[1].ID)
	})

	t.Run("open upper bound", func(t *testing.T) {
		programs, err := client.ListPrograms(ctx, 2500, 0)
		require.NoError(t, err)
		require.Len(t, programs, 1)
		assert.Equal(t, ids[0], programs[0].ID)
	})
}

func TestScanPrograms(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	p1 := newProgram("one", 1)
	p1.ID = "abcdef01-0000-4000-8000-000000000001"
	p2 := newProgram("two", 2)
	p2.ID = "abcdef02-0000-4000-8000-000000000002"
	p3 := newProgram("three", 3)
	p3.ID = "12345678-0000-4000-8000-000000000003"
	for _, p := range []*Program{p1, p2, p3} {
		_, _, err := client.SaveProgram(ctx, p)
		require.NoError(t, err)
	}

	// keys from another namespace are ignored
	mr.HSet(ProgramKey("other-shop", "abcdef03-0000-4000-8000-000000000003"), "id", "x")

	ids, err := client.ScanPrograms(ctx, "abcdef")
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID, p2.ID}, ids)

	ids, err = client.ScanPrograms(ctx, "abcdef02")
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, ids)

	ids, err = client.ScanPrograms(ctx, "ffffff")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSubscribeProgramEvents(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.SubscribeProgramEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	p := newProgram("event text", 42)
	_, _, err = client.SaveProgram(ctx, p)
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		require.NotNil(t, event)
		assert.Equal(t, p.ID, event.ID)
		assert.Equal(t, p.Digest, event.Digest)
		assert.Empty(t, event.Knitout, "events carry metadata only")
	case <-ctx.Done():
		t.Fatal("timed out waiting for program event")
	}

	// a duplicate save publishes nothing
	_, created, err := client.SaveProgram(ctx, newProgram("event text", 43))
	require.NoError(t, err)
	assert.False(t, created)
	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected event for %s", event.ID)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close is idempotent")
}

func TestSerializationRoundTrip(t *testing.T) {
	p := newProgram("round trip", 77)
	p.Bindoff = true

	hash, err := ProgramToHash(p)
	require.NoError(t, err)

	// Redis returns every field as a string
	strHash := make(map[string]string, len(hash))
	for k, v := range hash {
		switch v := v.(type) {
		case string:
			strHash[k] = v
		case int:
			strHash[k] = strconv.Itoa(v)
		case int64:
			strHash[k] = strconv.FormatInt(v, 10)
		}
	}

	back, err := HashToProgram(strHash)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestHashToProgramRejectsBadFields(t *testing.T) {
	_, err := HashToProgram(map[string]string{"width": "x"})
	assert.ErrorContains(t, err, "invalid width field")

	_, err = HashToProgram(map[string]string{
		"width": "1", "height": "1", "instructions": "1", "carriers": "{",
	})
	assert.ErrorContains(t, err, "failed to unmarshal carriers")
}
