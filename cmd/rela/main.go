// Command rela runs a Python script that uses relative imports as if it
// had been started with python -m from its package root.
package main

import (
	"context"
	"os"

	"github.com/felixgeelhaar/rela/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
