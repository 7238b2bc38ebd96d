// Command replay inspects a recorded episode store: lists episodes, or
// dumps one episode's actions as JSON lines with their frame payloads.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alters-mit/sticky-mitten-avatar/internal/record"
)

func main() {
	var (
		dbPath  = flag.String("db", "episodes.db", "sqlite episode store")
		episode = flag.Int64("episode", 0, "episode id to dump (0 = list episodes)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	store, err := record.Open(*dbPath)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer store.Close()

	if *episode == 0 {
		eps, err := store.Episodes()
		if err != nil {
			logger.Fatalf("%v", err)
		}
		for _, e := range eps {
			fmt.Printf("%d\t%s\t%s\n", e.ID, e.StartedAt, e.Label)
		}
		return
	}

	acts, err := store.Actions(*episode)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, a := range acts {
		row := map[string]any{
			"seq":    a.Seq,
			"frame":  a.Frame,
			"kind":   a.Kind,
			"status": a.Status,
		}
		if a.Arm != "" {
			row["arm"] = a.Arm
		}
		if a.ObjectID != 0 {
			row["object_id"] = a.ObjectID
		}
		if len(a.Payload) > 0 {
			row["data"] = json.RawMessage(a.Payload)
		}
		if err := enc.Encode(row); err != nil {
			logger.Fatalf("%v", err)
		}
	}
}
