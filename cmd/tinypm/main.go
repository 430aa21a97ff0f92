// Command tinypm resolves npm dependency requirements into an exact,
// mutually compatible package set.
//
// Usage:
//
//	tinypm resolve [name@range ...] [--manifest package.json] [--lockfile tinypm.lock]
//	tinypm pin name@range
//	tinypm fetch name@range --out dir
//	tinypm why name
//	tinypm cache clear
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		st := newStyles(cmd.ErrOrStderr())
		fmt.Fprintln(cmd.ErrOrStderr(), st.err.Render("error:"), err)
		stop()
		os.Exit(1)
	}
}
