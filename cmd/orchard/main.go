// Command orchard manages containers, sub-containers and items from the
// command line against SQLite, Postgres or DynamoDB.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fail(os.Stderr, err.Error())
		os.Exit(1)
	}
}
