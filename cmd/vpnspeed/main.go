// vpnspeed measures VPN connection time and download speed for a list of
// locations. See `vpnspeed --help`.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/rtx"

	"vpnspeed/internal/cli"
)

func main() {
	// An interrupted run still saves what it measured and restores the
	// VPN client's network lock.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rtx.Must(cli.Execute(ctx), "vpnspeed failed")
}
