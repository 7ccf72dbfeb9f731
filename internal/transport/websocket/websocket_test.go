package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/transport"
	"github.com/stretchr/testify/suite"
)

type WebsocketTransportTestSuite struct {
	suite.Suite
	hub    *Hub
	server *httptest.Server
	url    string
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *WebsocketTransportTestSuite) SetupTest() {
	var err error
	s.hub, err = NewHub(&HubConfig{PeerID: "host"})
	s.Require().NoError(err)

	s.server = httptest.NewServer(s.hub)
	s.url = "ws" + strings.TrimPrefix(s.server.URL, "http")
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *WebsocketTransportTestSuite) TearDownTest() {
	s.cancel()
	_ = s.hub.Close()
	s.server.Close()
}

func TestWebsocketTransportSuite(t *testing.T) {
	suite.Run(t, new(WebsocketTransportTestSuite))
}

func (s *WebsocketTransportTestSuite) dial(peerID string, wantPeers int) *Conn {
	c, err := Dial(s.ctx, &DialConfig{URL: s.url, PeerID: peerID})
	s.Require().NoError(err)
	s.Require().Eventually(func() bool {
		return s.hub.Peers() == wantPeers
	}, time.Second, 10*time.Millisecond)
	return c
}

func (s *WebsocketTransportTestSuite) hello(seat int) *protocol.Envelope {
	env, err := protocol.New(protocol.MsgHello, "", "game-1", protocol.Hello{Seat: seat})
	s.Require().NoError(err)
	return env
}

func (s *WebsocketTransportTestSuite) TestGuestToHost() {
	guest := s.dial("guest-1", 1)
	defer guest.Close()

	s.Require().NoError(guest.Send(s.ctx, s.hello(1)))

	got, err := s.hub.Receive(s.ctx)
	s.Require().NoError(err)
	s.Equal(protocol.MsgHello, got.Type)
	s.Equal("guest-1", got.Sender)

	hello, err := protocol.DecodePayload[protocol.Hello](got)
	s.Require().NoError(err)
	s.Equal(1, hello.Seat)
}

func (s *WebsocketTransportTestSuite) TestHostToGuests() {
	g1 := s.dial("guest-1", 1)
	defer g1.Close()
	g2 := s.dial("guest-2", 2)
	defer g2.Close()

	s.Require().NoError(s.hub.Send(s.ctx, s.hello(0)))

	for _, g := range []*Conn{g1, g2} {
		got, err := g.Receive(s.ctx)
		s.Require().NoError(err)
		s.Equal("host", got.Sender)
	}
}

func (s *WebsocketTransportTestSuite) TestGuestFramesAreRelayed() {
	g1 := s.dial("guest-1", 1)
	defer g1.Close()
	g2 := s.dial("guest-2", 2)
	defer g2.Close()

	s.Require().NoError(g1.Send(s.ctx, s.hello(1)))

	got, err := g2.Receive(s.ctx)
	s.Require().NoError(err)
	s.Equal("guest-1", got.Sender)

	got, err = s.hub.Receive(s.ctx)
	s.Require().NoError(err)
	s.Equal("guest-1", got.Sender)

	ctx, cancel := context.WithTimeout(s.ctx, 200*time.Millisecond)
	defer cancel()
	_, err = g1.Receive(ctx)
	s.True(errors.Is(err, context.DeadlineExceeded))
}

// stalled registers a guest whose send queue is full and never drains
func (s *WebsocketTransportTestSuite) stalled() *Conn {
	c := &Conn{send: make(chan []byte, 1), done: make(chan struct{})}
	c.send <- []byte("{}")

	s.hub.mu.Lock()
	s.hub.conns[c] = struct{}{}
	s.hub.mu.Unlock()
	return c
}

func (s *WebsocketTransportTestSuite) TestSlowGuestIsDropped() {
	guest := s.dial("guest-1", 1)
	defer guest.Close()

	s.Run("host send", func() {
		slow := s.stalled()

		err := s.hub.Send(s.ctx, s.hello(0))
		s.True(errors.Is(err, ErrSlowPeer))

		got, err := guest.Receive(s.ctx)
		s.Require().NoError(err)
		s.Equal(protocol.MsgHello, got.Type)

		select {
		case <-slow.done:
		default:
			s.Fail("slow guest was not closed")
		}
	})

	s.Run("relayed frame", func() {
		slow := s.stalled()

		s.Require().NoError(guest.Send(s.ctx, s.hello(1)))

		got, err := s.hub.Receive(s.ctx)
		s.Require().NoError(err)
		s.Equal("guest-1", got.Sender)

		select {
		case <-slow.done:
		default:
			s.Fail("slow guest was not closed")
		}
	})
}

func (s *WebsocketTransportTestSuite) TestCloseEndsReceive() {
	guest := s.dial("guest-1", 1)
	s.Require().NoError(s.hub.Close())

	_, err := guest.Receive(s.ctx)
	s.True(errors.Is(err, transport.ErrClosed))

	_, err = s.hub.Receive(s.ctx)
	s.True(errors.Is(err, transport.ErrClosed))
	s.True(errors.Is(s.hub.Send(s.ctx, s.hello(0)), transport.ErrClosed))
}

func (s *WebsocketTransportTestSuite) TestDialValidatesConfig() {
	_, err := Dial(s.ctx, nil)
	s.Error(err)
	_, err = Dial(s.ctx, &DialConfig{URL: s.url})
	s.Error(err)
}
