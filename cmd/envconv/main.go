// Command envconv converts legacy BDL building files into an
// energy-envelope model.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/aclements/envelope/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
