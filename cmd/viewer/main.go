// Command viewer prints the persisted message history without going through
// the server. It opens the database read-only, so it can run while the
// server holds the write lock.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"chat-relay/internal"
	"chat-relay/repositories"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in read-only mode.
	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repository := repositories.NewMessageRepository(db, internal.GetLoggerFromString("ERROR"), config.LimitMessages)

	// 3. Walk the whole log, page by page
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Sent At", "Username", "Lang", "Message"})

	total := 0
	var cursor *string
	for {
		messages, next, err := repository.ListSince(cursor)
		if err != nil {
			log.Fatalf("Failed to read messages: %v", err)
		}
		if len(messages) == 0 {
			break
		}
		for _, m := range messages {
			table.Append([]string{
				m.At.Format(time.RFC3339),
				m.Username,
				m.Lang,
				m.Content,
			})
		}
		total += len(messages)
		if next == nil || (cursor != nil && *next == *cursor) {
			break
		}
		cursor = next
	}

	color.Bold.Println("Message history")
	table.Render()
	color.Green.Println(fmt.Sprintf("%d message(s)", total))
}
