// Command bq is the BeanQueue CLI: create the schema, run a worker process,
// or submit a single task.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
