// Command server runs the Battleship lobby server: it accepts control
// connections on the given port and matches players into games (spec.md
// §4.4). Grounded on rustyguts-bken/server/main.go's flag/signal/metrics
// wiring, trimmed to this system's scope (no TLS, no persistent store, no
// REST API — none of those have a home in this spec).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"battleship/internal/lobby"
	"battleship/internal/metrics"
	"battleship/internal/netutil"
)

func main() {
	port := flag.Int("port", netutil.DefaultServerPort, "control-channel listen port")
	selectTimeout := flag.Duration("select-timeout", lobby.DefaultSelectTimeout, "reactor wake-up interval (also drives invite-expiry scanning)")
	playRequestTimeout := flag.Duration("play-request-timeout", lobby.DefaultPlayRequestTimeout, "how long an invitation may go unanswered before PLAY_TIMEDOUT")
	rateLimit := flag.Float64("rate-limit", 0, "maximum control messages per second per client (0 = unlimited)")
	metricsInterval := flag.Duration("metrics-interval", 30*time.Second, "interval between lobby occupancy log lines")
	flag.Parse()

	if flag.NArg() > 0 {
		if p, err := strconv.Atoi(flag.Arg(0)); err == nil {
			*port = p
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := netutil.ListenTCPWithRetry(ctx, netutil.JoinHostPort("", *port))
	if err != nil {
		log.Fatalf("[server] %v", err)
	}
	log.Printf("[server] listening on %s", ln.Addr())

	l := lobby.New(lobby.Config{
		SelectTimeout:      *selectTimeout,
		PlayRequestTimeout: *playRequestTimeout,
		ControlRateLimit:   *rateLimit,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		<-sigCh
		log.Println("[server] shutting down...")
		cancel()
	}()

	go metrics.Run(ctx, *metricsInterval, l.Stats)

	if err := l.Run(ctx, ln); err != nil {
		log.Fatalf("[server] %v", err)
	}
}
