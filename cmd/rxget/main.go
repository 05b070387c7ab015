// Command rxget sends one HTTP request through rxhttp streams and prints the
// decoded response.
//
//	rxget -decode json https://api.example.com/users/1
//	rxget -o out.bin -progress https://example.com/file.bin
//	rxget -d '{"name":"x"}' -H 'Content-Type: application/json' https://api.example.com/users
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
