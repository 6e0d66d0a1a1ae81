// Prunes settled rows from the webhook deduplication log. Applied rows are
// kept forever so redeliveries stay idempotent; duplicate, stale, and
// rejected rows only matter while the provider may still retry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

func main() {
	var retention time.Duration
	flag.DurationVar(&retention, "retention", 90*24*time.Hour, "age after which settled dedup rows are pruned")
	flag.Parse()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	cutoff := time.Now().Add(-retention)
	tag, err := conn.Exec(ctx,
		`DELETE FROM processed_events WHERE outcome <> 'applied' AND received_at < $1`,
		cutoff,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pruned %d dedup rows older than %s.\n", tag.RowsAffected(), cutoff.Format(time.RFC3339))
}
