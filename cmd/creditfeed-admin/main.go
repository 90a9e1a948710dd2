// Command creditfeed-admin performs administrative actions against the creditfeed database:
// schema migrations, admin provisioning, role changes and credit adjustments.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1) //nolint:forbidigo // CLI must signal failure to shell scripts
	}
}
