// Command client is the interactive Battleship terminal client: it logs
// into a lobby server, then hands off to internal/player's reactor for the
// rest of the session (spec.md §4.5/§4.6). Grounded on rustyguts-bken's
// client main() for the connect/signal-handling shape, adapted to this
// spec's login handshake and UDP gameplay socket.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"battleship/internal/netutil"
	"battleship/internal/player"
	"battleship/internal/render"
)

func main() {
	username := flag.String("username", "", "player name (prompted for if omitted)")
	inGameTimeout := flag.Duration("in-game-timeout", player.DefaultInGameTimeout, "inactivity timeout while a match is in progress")
	selectTimeout := flag.Duration("select-timeout", player.DefaultSelectTimeout, "reactor wake-up interval")
	flag.Parse()

	host := netutil.DefaultServerHost
	port := netutil.DefaultServerPort
	if flag.NArg() > 0 {
		host = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		if p, err := strconv.Atoi(flag.Arg(1)); err == nil {
			port = p
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		<-sigCh
		log.Println("[client] shutting down...")
		cancel()
	}()

	conn, err := netutil.Dial(ctx, host, port)
	if err != nil {
		log.Fatalf("[client] %v", err)
	}

	udp, err := netutil.ListenUDP("udp", 0)
	if err != nil {
		log.Fatalf("[client] bind gameplay socket: %v", err)
	}
	udpPort := udp.LocalAddr().(*net.UDPAddr).Port

	stdin := bufio.NewReader(os.Stdin)
	name := strings.TrimSpace(*username)
	for name == "" {
		fmt.Print("username: ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			log.Fatalf("[client] %v", err)
		}
		name = strings.TrimSpace(line)
	}

	if err := player.Login(conn, name, uint16(udpPort)); err != nil {
		log.Fatalf("[client] %v", err)
	}
	log.Printf("[client] logged in as %s, connected to %s", name, conn.RemoteAddr())

	renderer := render.NewTermRenderer()
	reactor := player.New(conn, udp, name, renderer, player.Config{
		SelectTimeout: *selectTimeout,
		InGameTimeout: *inGameTimeout,
	})

	if err := reactor.Run(ctx, stdin); err != nil {
		log.Fatalf("[client] %v", err)
	}
}
