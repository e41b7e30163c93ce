// quiche-cache-dump inspects a quiche BadgerDB persistent cache directly,
// without going through an Engine. It opens the store read-only and
// prints a human-readable summary of every cached entry: key, codec,
// timestamp, and the size of the stored (gob-encoded) entry. The cached
// value itself is not decoded or previewed.
//
// Usage:
//
//	quiche-cache-dump [--path /path/to/store] [--export-dir DIR]
//
// If --path is not given, reads QUICHE_STORE_DIR from the environment,
// falling back to ~/.quiche/store. If --export-dir is given, the raw
// gob-encoded bytes of every entry are additionally written one file per
// entry under DIR, named per store.Slugify(key) (spec §6) — unlike
// BadgerDB's single logical store, a plain directory genuinely is a
// one-file-per-entry layout, so this is where that naming scheme applies.
//
// Exit codes:
//
//	0 — success (including "empty store", which prints a message and exits 0)
//	1 — error opening or reading the database
package main

import (
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/solsword/quiche/store"
)

// storeKeyPrefix must match store/badger.go exactly.
const storeKeyPrefix = "quiche/v1/"

type gobEntry struct {
	Timestamp float64
	Codec     string
	Data      []byte
}

func main() {
	pathFlag := flag.String("path", "", "Path to the quiche BadgerDB directory (overrides QUICHE_STORE_DIR env var)")
	exportDir := flag.String("export-dir", "", "If set, also write each entry's raw bytes to its own file under this directory, named via store.Slugify")
	flag.Parse()

	dbPath := *pathFlag
	if dbPath == "" {
		dbPath = os.Getenv("QUICHE_STORE_DIR")
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fatalf("cannot resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, ".quiche", "store")
	}

	fmt.Printf("Store path: %s\n", dbPath)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("Store directory does not exist. Nothing has been cached here yet.")
		os.Exit(0)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(nil).
		WithReadOnly(true)

	db, err := badger.Open(opts)
	if err != nil {
		fatalf("open BadgerDB at %s: %v", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	if *exportDir != "" {
		if err := os.MkdirAll(*exportDir, 0o700); err != nil {
			fatalf("create export dir %s: %v", *exportDir, err)
		}
	}

	type entry struct {
		key       string
		ts        float64
		codec     string
		rawSize   int
		decodeErr error
	}

	var entries []entry

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(storeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), storeKeyPrefix)

			e := entry{key: key}

			raw, err := item.ValueCopy(nil)
			if err != nil {
				e.decodeErr = fmt.Errorf("copy value: %w", err)
				entries = append(entries, e)
				continue
			}
			e.rawSize = len(raw)

			if *exportDir != "" {
				exportPath := filepath.Join(*exportDir, store.Slugify(key))
				if err := os.WriteFile(exportPath, raw, 0o600); err != nil {
					fatalf("export entry %q to %s: %v", key, exportPath, err)
				}
			}

			ge, err := gobDecode(raw)
			if err != nil {
				e.decodeErr = fmt.Errorf("gob decode: %w", err)
			} else {
				e.ts = ge.Timestamp
				e.codec = ge.Codec
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		fatalf("read BadgerDB: %v", err)
	}

	if len(entries) == 0 {
		fmt.Println("\nNo cached entries found.")
		os.Exit(0)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	fmt.Printf("\nFound %d cache entr%s:\n", len(entries), plural(len(entries), "y", "ies"))
	fmt.Println(strings.Repeat("─", 80))

	maxKeyLen := 0
	for _, e := range entries {
		if len(e.key) > maxKeyLen {
			maxKeyLen = len(e.key)
		}
	}
	colWidth := maxKeyLen + 2

	fmt.Printf("\n%-*s  %-24s  %-10s  %s\n", colWidth, "Key", "Stored At", "Codec", "Size")
	fmt.Printf("%s  %s  %s  %s\n",
		strings.Repeat("─", colWidth),
		strings.Repeat("─", 24),
		strings.Repeat("─", 10),
		strings.Repeat("─", 10),
	)

	for _, e := range entries {
		if e.decodeErr != nil {
			fmt.Printf("%-*s  DECODE ERROR: %v\n", colWidth, e.key, e.decodeErr)
			continue
		}
		stored := time.Unix(0, int64(e.ts*1e9)).UTC().Format("2006-01-02 15:04:05 MST")
		fmt.Printf("%-*s  %-24s  %-10s  %s\n", colWidth, e.key, stored, e.codec, formatBytes(e.rawSize))
	}

	fmt.Printf("\n%s\n", strings.Repeat("─", 80))
	fmt.Printf("Summary: %d entr%s, store path: %s\n", len(entries), plural(len(entries), "y", "ies"), dbPath)
	if *exportDir != "" {
		fmt.Printf("Exported raw bytes for %d entr%s to: %s\n", len(entries), plural(len(entries), "y", "ies"), *exportDir)
	}
}

func gobDecode(data []byte) (gobEntry, error) {
	var e gobEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return gobEntry{}, err
	}
	return e, nil
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB (%d bytes)", float64(n)/1024/1024, n)
	case n >= 1024:
		return fmt.Sprintf("%.1f KB (%d bytes)", float64(n)/1024, n)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func plural(n int, singular, pluralSuffix string) string {
	if n == 1 {
		return singular
	}
	return pluralSuffix
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "quiche-cache-dump: "+format+"\n", args...)
	os.Exit(1)
}
