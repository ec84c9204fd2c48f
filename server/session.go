package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blackjackd/deck"
	"blackjackd/protocol"
)

var (
	errDecisionTimeout = errors.New("timed out waiting for player decision")
	errPeerGone        = errors.New("peer closed the connection")
)

// readStatus is the outcome of one read on the session connection. The
// state machine inspects it explicitly; only timeouts and closed peers
// end the session.
type readStatus int

const (
	readOK readStatus = iota
	readTimedOut
	readClosed
	readInvalid
)

// session runs the round state machine for one connected player. Its
// deck and hands are owned exclusively by the worker running it.
type session struct {
	conn       net.Conn
	id         uuid.UUID
	name       string
	rounds     int
	timeout    time.Duration
	dealDelay  time.Duration
	roundDelay time.Duration
	newDeck    func() *deck.Deck
	stats      *Stats
	log        *logrus.Entry
}

// run plays the requested rounds back to back. Any error is fatal to the
// whole session; remaining rounds are abandoned.
func (s *session) run() error {
	for i := 1; i <= s.rounds; i++ {
		result, err := s.playRound(i)
		if err != nil {
			return err
		}
		s.stats.RoundsPlayed.Increment()
		s.log.WithFields(logrus.Fields{
			"round":  i,
			"result": result,
		}).Info("Round finished")
		if i < s.rounds && s.roundDelay > 0 {
			time.Sleep(s.roundDelay)
		}
	}
	return nil
}

// playRound is one full pass of Dealing, PlayerTurn, DealerTurn and
// Resolved. It returns the result code sent in the terminal event.
func (s *session) playRound(num int) (byte, error) {
	drain(s.conn)

	d := s.newDeck()
	player := deck.Hand{d.Draw(), d.Draw()}
	dealer := deck.Hand{d.Draw(), d.Draw()}

	s.log.WithField("round", num).Info("Starting round")

	// Deal: both player cards and the dealer's up card. The hole card
	// stays hidden until the dealer turn.
	for _, c := range []deck.Card{player[0], player[1], dealer[0]} {
		if err := s.sendCard(c); err != nil {
			return 0, err
		}
		s.pause()
	}

playerTurn:
	for player.Value() < 21 {
		action, status := s.readDecision()
		switch status {
		case readTimedOut:
			return 0, errDecisionTimeout
		case readClosed:
			return 0, errPeerGone
		case readInvalid:
			s.log.Debug("Discarding malformed frame")
			continue
		}

		switch action {
		case protocol.DecisionHit:
			c := d.Draw()
			player = append(player, c)
			if player.Value() > 21 {
				s.log.WithField("value", player.Value()).Info("Player busted")
				return protocol.ResultDealerWins, s.sendResult(protocol.ResultDealerWins, c)
			}
			if err := s.sendCard(c); err != nil {
				return 0, err
			}
		case protocol.DecisionStand:
			break playerTurn
		default:
			s.log.WithField("action", action).Debug("Ignoring unknown decision token")
		}
	}

	// Dealer turn: reveal the hole card, then draw until reaching 17.
	if err := s.sendCard(dealer[1]); err != nil {
		return 0, err
	}
	last := deck.NoCard
	for dealer.Value() < 17 {
		s.pause()
		c := d.Draw()
		dealer = append(dealer, c)
		last = c
		if err := s.sendCard(c); err != nil {
			return 0, err
		}
	}

	pv, dv := player.Value(), dealer.Value()
	result := protocol.ResultTie
	switch {
	case dv > 21:
		result = protocol.ResultPlayerWins
	case pv > dv:
		result = protocol.ResultPlayerWins
	case dv > pv:
		result = protocol.ResultDealerWins
	}
	return result, s.sendResult(result, last)
}

func (s *session) sendCard(c deck.Card) error {
	return s.sendEvent(protocol.ResultCard, c)
}

func (s *session) sendResult(result byte, c deck.Card) error {
	return s.sendEvent(result, c)
}

func (s *session) sendEvent(result byte, c deck.Card) error {
	packet := protocol.EncodeEvent(protocol.Event{
		Result: result,
		Rank:   uint16(c.Rank),
		Suit:   uint8(c.Suit),
	})
	if _, err := s.conn.Write(packet); err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	return nil
}

// readDecision blocks for up to the session timeout. Malformed frames
// report readInvalid so the caller can keep waiting without side effects.
func (s *session) readDecision() (string, readStatus) {
	buf := make([]byte, 1024)
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return "", readClosed
	}
	n, err := s.conn.Read(buf)
	s.conn.SetReadDeadline(time.Time{})
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "", readTimedOut
		}
		return "", readClosed
	}
	if n == 0 {
		return "", readClosed
	}
	action, err := protocol.DecodeDecision(buf[:n])
	if err != nil {
		return "", readInvalid
	}
	return action, readOK
}

func (s *session) pause() {
	if s.dealDelay > 0 {
		time.Sleep(s.dealDelay)
	}
}

const (
	maxDrainReads = 32
	drainWait     = 10 * time.Millisecond
)

// drain discards any bytes still queued from a previous round so a stale
// decision is never consumed as the next round's first input. The
// deadline must be slightly in the future: an already-expired deadline
// fails the read before buffered data is returned.
func drain(conn net.Conn) {
	buf := make([]byte, 1024)
	for i := 0; i < maxDrainReads; i++ {
		conn.SetReadDeadline(time.Now().Add(drainWait))
		if n, err := conn.Read(buf); err != nil || n == 0 {
			break
		}
	}
	conn.SetReadDeadline(time.Time{})
}
