package main

import (
	"chat-app/cache"
	"chat-app/domain"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", ".chatapp/cache", "Path to the client cache")
	showMessages := flag.Bool("messages", false, "List the cached messages")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	entries, err := readEntries(db)
	if err != nil {
		log.Fatal(err)
	}

	color.New(color.FgCyan, color.OpBold).Printf("Client cache at %s\n\n", *dbPath)
	table := newTable([]string{"Key", "Size", "Detail"})
	for _, key := range []string{cache.CredentialsKey, cache.ProfileKey, cache.MessagesKey, cache.DeviceKeyKey} {
		value, ok := entries[key]
		if !ok {
			table.Append([]string{key, "-", color.FgGray.Render("absent")})
			continue
		}
		table.Append([]string{key, strconv.Itoa(len(value)), describe(key, value)})
	}
	table.Render()

	if *showMessages {
		fmt.Println()
		printMessages(entries[cache.MessagesKey])
	}
}

// describe never reveals the credentials or the device key.
func describe(key string, value []byte) string {
	switch key {
	case cache.CredentialsKey:
		return "sealed"
	case cache.DeviceKeyKey:
		return "random key"
	case cache.ProfileKey:
		var profile domain.StoredProfile
		if err := json.Unmarshal(value, &profile); err != nil {
			return color.FgRed.Render("unreadable: " + err.Error())
		}
		return "username=" + profile.Username
	case cache.MessagesKey:
		var messages []domain.Message
		if err := json.Unmarshal(value, &messages); err != nil {
			return color.FgRed.Render("unreadable: " + err.Error())
		}
		if len(messages) == 0 {
			return "0 messages"
		}
		last := messages[len(messages)-1]
		return fmt.Sprintf("%d messages, last by %s at %s",
			len(messages), last.User, last.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return ""
}

func printMessages(raw []byte) {
	var messages []domain.Message
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &messages); err != nil {
			color.FgRed.Printf("Error unmarshaling messages: %v\n", err)
			return
		}
	}

	table := newTable([]string{"Time", "ID", "User", "Text", "Image"})
	for _, m := range messages {
		displayID := m.ID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		table.Append([]string{
			m.CreatedAt.Format("15:04:05"),
			displayID,
			m.User,
			m.Text,
			m.ImageURL,
		})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func readEntries(db *badger.DB) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("chatapp:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries[string(item.Key())] = value
		}
		return nil
	})
	return entries, err
}

// openDB opens read-only so a running client keeps its lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("%w: start and stop the client once to repair the cache", err)
	}
	return db, err
}
