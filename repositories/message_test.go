package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testMessages(at time.Time) []DiskMessage {
	return []DiskMessage{
		{ID: uuid.New(), Username: "Ana", Content: "hola", Lang: "es", At: at},
		{ID: uuid.New(), Username: "Juan", Content: "buenas", Lang: "es", At: at.Add(1 * time.Minute)},
		{ID: uuid.New(), Username: "Charly", Content: "hey", Lang: "en", At: at.Add(2 * time.Minute)},
	}
}

func Test_Store_And_List_In_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	stored := testMessages(time.Now().UTC().Truncate(time.Millisecond))
	// Out-of-order writes, the key layout restores chronological order
	for _, i := range []int{2, 0, 1} {
		req.NoError(repository.StoreMessage(stored[i]))
	}

	fetched, cursor, err := repository.ListSince(nil)
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(fetched, len(stored))
	for i, m := range fetched {
		req.Equal(stored[i].Username, m.Username)
		req.Equal(stored[i].Content, m.Content)
		req.True(stored[i].At.Equal(m.At))
	}
}

func Test_List_Resumes_From_Cursor(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(openTestDB(t), slog.Default(), &limit)

	stored := testMessages(time.Now().UTC())
	for _, dm := range stored {
		req.NoError(repository.StoreMessage(dm))
	}

	// First page hits the limit
	page1, cursor, err := repository.ListSince(nil)
	req.NoError(err)
	req.Len(page1, limit)
	req.NotNil(cursor)

	// Second page starts after the cursor
	page2, _, err := repository.ListSince(cursor)
	req.NoError(err)
	req.Len(page2, 1)
	req.Equal("Charly", page2[0].Username)
}

func Test_Clear_Drops_All_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	for _, dm := range testMessages(time.Now().UTC()) {
		req.NoError(repository.StoreMessage(dm))
	}
	req.NoError(repository.Clear())

	fetched, _, err := repository.ListSince(nil)
	req.NoError(err)
	req.Empty(fetched)
}
