// Command nbaetl loads NBA Parquet datasets into a SQLite star schema.
//
// Usage:
//
//	nbaetl run --mode UPSERT --players data/players.parquet --schedule data/schedule/ ...
//	nbaetl verify -c nba.yaml
//	nbaetl check --dsn nba.db
//	nbaetl schema ensure|drop
//	nbaetl config dump|validate
package main

import (
	"fmt"
	"os"

	"nbaetl/internal/logging"

	// register the storage backends with the storage factory.
	_ "nbaetl/internal/storage/all"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	a.newLogger = logging.New
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
