package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"blackjackd/protocol"
)

// DiscoveryPort is the well-known UDP port clients listen on for offers.
const DiscoveryPort = 13122

const offerInterval = 1 * time.Second

// Broadcaster announces the host once per second so clients on the local
// network can find the TCP endpoint. A failed send is logged and retried
// on the next tick; the broadcaster only stops when its context does.
type Broadcaster struct {
	dest string
	name string
	port uint16
}

func NewBroadcaster(dest, name string, tcpPort uint16) *Broadcaster {
	return &Broadcaster{
		dest: dest,
		name: name,
		port: tcpPort,
	}
}

func (b *Broadcaster) Run(ctx context.Context) {
	addr, err := net.ResolveUDPAddr("udp4", b.dest)
	if err != nil {
		logrus.WithError(err).Error("Bad broadcast address, discovery disabled")
		return
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		logrus.WithError(err).Error("Cannot open discovery socket, discovery disabled")
		return
	}
	defer conn.Close()

	logrus.WithFields(logrus.Fields{
		"dest": b.dest,
		"port": b.port,
	}).Info("Broadcasting offers")

	packet := protocol.EncodeOffer(protocol.Offer{
		Port: b.port,
		Name: b.name,
	})

	ticker := time.NewTicker(offerInterval)
	defer ticker.Stop()

	for {
		if _, err := conn.WriteTo(packet, addr); err != nil {
			logrus.WithError(err).Error("Offer broadcast failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
