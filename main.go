package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/sirupsen/logrus"

	"blackjackd/server"
)

// getLocalIP finds the address a LAN client would reach us on. Best
// effort, falls back to loopback.
func getLocalIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func main() {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Black", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("jackd", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	s := server.NewServer(server.ServerConfig{
		ListenAddr:    ":0",
		APIListenAddr: ":8080",
		Name:          "Dealer-House-1",
		DealDelay:     200 * time.Millisecond,
		RoundDelay:    1500 * time.Millisecond,
	})
	if err := s.Listen(); err != nil {
		logrus.Fatal(err)
	}

	pterm.Info.Printfln("Table open on %s:%d", getLocalIP(), s.Port())
	pterm.Info.Printfln("Broadcasting offers on UDP %d", server.DiscoveryPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Serve(ctx); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("Drained all sessions, goodbye")
}
