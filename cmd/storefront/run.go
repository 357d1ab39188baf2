package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
)

// run blocks until ctx is cancelled or a component requests shutdown and
// returns the process exit code.
func run(ctx context.Context, app *fx.App, stderr io.Writer) int {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "storefront: failed to start: %v\n", err)
		return 1
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(stderr, "storefront: failed to stop: %v\n", err)
		return 1
	}
	return code
}
