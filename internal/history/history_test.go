package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach/internal/storage"
)

func sampleMessages() []Message {
	return []Message{
		{ID: 1700000000000, Text: "Tell me about yourself", IsUser: true, Timestamp: 1700000000000},
		{ID: 1700000000001, Text: "**Great question!**\n\n- Start with your role", Timestamp: 1700000000001},
		{ID: 1700000005000, Text: "Why should we hire you?", IsUser: true, Timestamp: 1700000005000},
		{ID: 1700000005001, Text: "I apologize, but I'm having trouble connecting right now.", Timestamp: 1700000005001, IsError: true},
	}
}

func TestKVRepository_RoundTrip(t *testing.T) {
	kvs := map[string]storage.KV{
		"memory": storage.NewMemory(0),
		"file":   storage.NewFile(filepath.Join(t.TempDir(), "storage.json"), 0, nil),
	}
	for name, kv := range kvs {
		t.Run(name, func(t *testing.T) {
			repo := NewKVRepository(kv, "", nil)
			want := sampleMessages()

			repo.Save(want)
			assert.Equal(t, want, repo.Load())
		})
	}
}

func TestKVRepository_UsesNamespacedKey(t *testing.T) {
	kv := storage.NewMemory(0)
	NewKVRepository(kv, "", nil).Save(sampleMessages())

	raw, ok, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"isUser":true`)
	assert.Contains(t, raw, `"isError":true`)
}

func TestKVRepository_LoadAbsent(t *testing.T) {
	repo := NewKVRepository(storage.NewMemory(0), "", nil)
	got := repo.Load()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestKVRepository_LoadMalformed(t *testing.T) {
	for _, raw := range []string{"{not json", `{"id":1}`, `"hello"`, "null", `[{"id":"x"}]`} {
		kv := storage.NewMemory(0)
		require.NoError(t, kv.Set(DefaultKey, raw))

		got := NewKVRepository(kv, "", nil).Load()
		assert.Empty(t, got, "raw=%q", raw)
	}
}

type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (failingKV) Set(string, string) error         { return storage.ErrQuotaExceeded }
func (failingKV) Remove(string) error              { return errors.New("disk on fire") }

func TestKVRepository_SwallowsStorageErrors(t *testing.T) {
	repo := NewKVRepository(failingKV{}, "", nil)

	assert.NotPanics(t, func() {
		assert.Empty(t, repo.Load())
		repo.Save(sampleMessages())
		repo.Clear()
	})
}

func TestConversation_AppendPersists(t *testing.T) {
	repo := NewMemoryRepository()
	conv := OpenConversation(repo)

	for _, m := range sampleMessages() {
		conv.Append(m)
	}

	assert.Equal(t, 4, conv.Len())
	assert.Equal(t, 4, repo.Saves(), "every append is written through")
	assert.Equal(t, sampleMessages(), repo.Load())

	last, ok := conv.Last()
	require.True(t, ok)
	assert.True(t, last.IsError)
}

func TestConversation_FailedWriteKeepsAppend(t *testing.T) {
	conv := OpenConversation(NewKVRepository(failingKV{}, "", nil))
	conv.Append(sampleMessages()[0])
	assert.Equal(t, 1, conv.Len())
}

func TestConversation_Clear(t *testing.T) {
	kv := storage.NewMemory(0)
	repo := NewKVRepository(kv, "", nil)
	repo.Save(sampleMessages())

	conv := OpenConversation(repo)
	require.Equal(t, 4, conv.Len())

	conv.Clear()
	assert.Empty(t, conv.Messages())

	_, ok, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok, "clear removes the persisted entry")
}

func TestConversation_Reload(t *testing.T) {
	repo := NewMemoryRepository(sampleMessages()...)
	conv := OpenConversation(repo)

	repo.Clear()
	conv.Reload()
	assert.Equal(t, 0, conv.Len())
}

func TestConversation_MessagesIsSnapshot(t *testing.T) {
	conv := OpenConversation(NewMemoryRepository(sampleMessages()...))
	snap := conv.Messages()
	snap[0].Text = "changed"

	assert.Equal(t, "Tell me about yourself", conv.Messages()[0].Text)
}

func TestIDSource_SameMillisecond(t *testing.T) {
	ids := NewIDSource(nil)
	now := time.UnixMilli(1700000000000)

	seen := make(map[int64]bool)
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := ids.Next(now)
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestIDSource_SeededFromHistory(t *testing.T) {
	ids := NewIDSource(sampleMessages())

	// A clock behind the newest stored id must still produce a fresh id.
	id := ids.Next(time.UnixMilli(1600000000000))
	assert.Equal(t, int64(1700000005002), id)
}

func TestIDSource_ClockAdvances(t *testing.T) {
	ids := NewIDSource(nil)
	assert.Equal(t, int64(1000), ids.Next(time.UnixMilli(1000)))
	assert.Equal(t, int64(5000), ids.Next(time.UnixMilli(5000)))
}

func TestMessage_Time(t *testing.T) {
	m := Message{Timestamp: 1700000000000}
	assert.Equal(t, int64(1700000000000), m.Time().UnixMilli())
	assert.Equal(t, "AI Coach", m.Author())
	assert.Equal(t, "You", Message{IsUser: true}.Author())
}
