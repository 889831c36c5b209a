package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storesUnderTest runs the same contract against both implementations.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SaveAndFindOne_ReturnsDocument(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Document{"platform": "discord", "id": "msg-1"}
			doc := Document{"platform": "discord", "id": "msg-1", "text": "hola"}
			require.NoError(t, st.Save(ctx, "messages", key, doc))

			found, err := st.FindOne(ctx, "messages", Document{"id": "msg-1"})
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "hola", found["text"])
		})
	}
}

func TestStore_FindOne_NoMatch_NilNil(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			found, err := st.FindOne(context.Background(), "messages", Document{"id": "nope"})
			assert.NoError(t, err)
			assert.Nil(t, found)
		})
	}
}

func TestStore_Save_SameKey_Upserts(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Document{"id": "msg-1"}
			require.NoError(t, st.Save(ctx, "messages", key, Document{"id": "msg-1", "text": "first"}))
			require.NoError(t, st.Save(ctx, "messages", key, Document{"id": "msg-1", "text": "second"}))

			docs, err := st.Find(ctx, "messages", Document{"id": "msg-1"})
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, "second", docs[0]["text"])
		})
	}
}

func TestStore_Find_FiltersByEquality(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "ban",
				Document{"user_id": "u1", "group_id": "g1"},
				Document{"user_id": "u1", "group_id": "g1", "platform": "discord"}))
			require.NoError(t, st.Save(ctx, "ban",
				Document{"user_id": "u2", "group_id": "g1"},
				Document{"user_id": "u2", "group_id": "g1", "platform": "discord"}))
			require.NoError(t, st.Save(ctx, "ban",
				Document{"user_id": "u1", "group_id": "g2"},
				Document{"user_id": "u1", "group_id": "g2", "platform": "telegram"}))

			docs, err := st.Find(ctx, "ban", Document{"group_id": "g1"})
			require.NoError(t, err)
			assert.Len(t, docs, 2)

			docs, err = st.Find(ctx, "ban", Document{"user_id": "u1", "platform": "telegram"})
			require.NoError(t, err)
			assert.Len(t, docs, 1)
		})
	}
}

func TestStore_Find_EmptyQuery_ReturnsAll(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "messages", Document{"id": "a"}, Document{"id": "a"}))
			require.NoError(t, st.Save(ctx, "messages", Document{"id": "b"}, Document{"id": "b"}))

			docs, err := st.Find(ctx, "messages", Document{})
			require.NoError(t, err)
			assert.Len(t, docs, 2)
		})
	}
}

func TestStore_Collections_Isolated(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "ban", Document{"id": "a"}, Document{"id": "a"}))

			found, err := st.FindOne(ctx, "mute", Document{"id": "a"})
			require.NoError(t, err)
			assert.Nil(t, found)
		})
	}
}

func TestStore_Delete_RemovesOnlyMatching(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "ban", Document{"user_id": "u1"}, Document{"user_id": "u1"}))
			require.NoError(t, st.Save(ctx, "ban", Document{"user_id": "u2"}, Document{"user_id": "u2"}))

			require.NoError(t, st.Delete(ctx, "ban", Document{"user_id": "u1"}))

			docs, err := st.Find(ctx, "ban", Document{})
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, "u2", docs[0]["user_id"])
		})
	}
}

func TestStore_NumericValues_MatchAfterRoundTrip(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "stats", Document{"id": "a"}, Document{"id": "a", "count": 3}))

			found, err := st.FindOne(ctx, "stats", Document{"count": 3})
			require.NoError(t, err)
			assert.NotNil(t, found)
		})
	}
}

func TestMemoryStore_ReturnedDocument_IsACopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, "messages", Document{"id": "a"}, Document{"id": "a", "text": "original"}))

	found, err := st.FindOne(ctx, "messages", Document{"id": "a"})
	require.NoError(t, err)
	found["text"] = "mutated"

	again, err := st.FindOne(ctx, "messages", Document{"id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "original", again["text"])
}

func TestSQLiteStore_Save_EmptyKey_ReturnsError(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	err = st.Save(context.Background(), "messages", Document{}, Document{"id": "a"})
	assert.Error(t, err)
}

func TestKeyString_FieldOrderIndependent(t *testing.T) {
	a := keyString(Document{"platform": "discord", "id": "msg-1", "chat_id": "c1"})
	b := keyString(Document{"chat_id": "c1", "id": "msg-1", "platform": "discord"})
	assert.Equal(t, a, b)
}
