// Package main prints a summary of a FindShroom data directory: entity counts
// from the SQLite store, the leaderboard head and the live login sessions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store/sqlite"
)

var top = flag.Int("top", 10, "Number of leaderboard rows to print")

func main() {
	flag.Parse()

	dataPath := os.Getenv("FINDSHROOM_DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/FindShroom/data")
	}

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	inspectStore(filepath.Join(dataPath, "findshroom.db"))
	fmt.Println()
	inspectSessions(filepath.Join(dataPath, "sessions"))
}

func inspectStore(dbPath string) {
	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	mushrooms, err := s.CountMushrooms(ctx)
	if err != nil {
		log.Fatalf("Failed to count mushrooms: %v", err)
	}
	users, err := s.CountUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	markers, err := s.ListMarkers(ctx)
	if err != nil {
		log.Fatalf("Failed to list markers: %v", err)
	}

	private := 0
	for _, m := range markers {
		if m.IsPrivate {
			private++
		}
	}

	fmt.Printf("Catalog entries: %d\n", mushrooms)
	fmt.Printf("Users:           %d\n", users)
	fmt.Printf("Markers:         %d (%d private)\n", len(markers), private)

	board, err := s.ListUserStats(ctx, *top)
	if err != nil {
		log.Fatalf("Failed to list stats: %v", err)
	}
	if len(board) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Leaderboard:")
	for i, st := range board {
		name := fmt.Sprintf("user %d", st.UserID)
		if u, err := s.GetUser(ctx, st.UserID); err == nil {
			name = u.Username
		}
		fmt.Printf("  %2d. %-20s level %-3d exp %d/%d  mushrooms %d  markers %d\n",
			i+1, name, st.Level, st.Experience, domain.ExperienceForNextLevel(st.Level),
			st.TotalMushroomsCollected, st.TotalMarkersCreated)
	}
}

func inspectSessions(dir string) {
	if _, err := os.Stat(dir); err != nil {
		fmt.Println("No session store found")
		return
	}

	opts := badger.DefaultOptions(dir).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer db.Close()

	now := time.Now()
	perUser := make(map[int64]int)
	total, expired := 0, 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("session:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sess domain.Session
				if err := json.Unmarshal(val, &sess); err != nil {
					fmt.Printf("  unreadable session %s: %v\n", strings.TrimPrefix(string(it.Item().Key()), "session:"), err)
					return nil
				}
				total++
				if sess.IsExpired(now) {
					expired++
					return nil
				}
				perUser[sess.UserID]++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read sessions: %v", err)
	}

	fmt.Printf("Sessions: %d (%d expired)\n", total, expired)

	userIDs := make([]int64, 0, len(perUser))
	for id := range perUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	for _, id := range userIDs {
		fmt.Printf("  user %d: %d active\n", id, perUser[id])
	}
}
