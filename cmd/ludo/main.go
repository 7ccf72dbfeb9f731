package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/common/uuid"
	"github.com/KirkDiggler/ludo/internal/config"
	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/repositories/game"
	gameService "github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	"github.com/KirkDiggler/ludo/internal/services/netsync"
	"github.com/KirkDiggler/ludo/internal/transport"
	redisTransport "github.com/KirkDiggler/ludo/internal/transport/redis"
	"github.com/KirkDiggler/ludo/internal/transport/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const wsPath = "/ws"

type options struct {
	players  int
	names    string
	host     string
	join     string
	relay    string
	gameID   string
	seat     int
	name     string
	logLevel string
}

func parseFlags() *options {
	opts := &options{}
	flag.IntVar(&opts.players, "players", 4, "number of players (2-4)")
	flag.StringVar(&opts.names, "names", "", "comma separated player names in seat order")
	flag.StringVar(&opts.host, "host", "", "host a networked game on this address, e.g. :8080")
	flag.StringVar(&opts.join, "join", "", "join a hosted game by its websocket URL")
	flag.StringVar(&opts.relay, "relay", "", "play through a Redis relay at this address")
	flag.StringVar(&opts.gameID, "game", "", "game ID to join over the relay")
	flag.IntVar(&opts.seat, "seat", -1, "seat to ask for (0-3); by default the host picks a free one")
	flag.StringVar(&opts.name, "name", "", "your name, announced to peers")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The terminal defaults to warn unless a level is given
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	} else if _, ok := os.LookupEnv(config.EnvLogLevel); !ok {
		level = "warn"
	}
	logger, err := config.NewLogger(level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Fatal("ludo stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, opts *options, logger *zap.Logger) error {
	out := &printer{out: os.Stdout}

	messagingSvc, err := messaging.NewService(&messaging.ServiceConfig{
		DefaultTone: messaging.MessageTone(cfg.Tone),
	})
	if err != nil {
		return fmt.Errorf("failed to create messaging service: %w", err)
	}

	notifier, err := messaging.NewNotifier(&messaging.NotifierConfig{
		Messaging: messagingSvc,
		Publisher: out,
		Logger:    logger.Named("notifier"),
	})
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	gameSvc, err := gameService.New(&gameService.Config{
		DefaultRules:  cfg.Rules,
		GameRepo:      game.NewMemory(),
		DiceRoller:    dice.New(&dice.Config{}),
		Clock:         clock.New(),
		UUIDGenerator: uuid.New(),
		Notifier:      notifier,
		Logger:        logger.Named("game"),
	})
	if err != nil {
		return fmt.Errorf("failed to create game service: %w", err)
	}

	peerID := uuid.New().NewUUID()
	gameID, seat, tr, err := connect(ctx, opts, peerID, out, logger)
	if err != nil {
		return err
	}
	if tr != nil {
		defer tr.Close()
	}

	if _, err := gameSvc.CreateGame(ctx, &gameService.CreateGameInput{
		GameID:      gameID,
		PlayerCount: opts.players,
	}); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	c := &console{
		games:     gameSvc,
		messaging: messagingSvc,
		printer:   out,
		players:   opts.players,
		names:     splitNames(opts.names),
	}

	adapter, err := netsync.New(&netsync.Config{
		GameService: gameSvc,
		Transport:   tr,
		GameID:      gameID,
		LocalSeat:   seat,
		PeerID:      peerID,
		Logger:      logger.Named("netsync"),
		OnUpdate:    c.draw,
	})
	if err != nil {
		return fmt.Errorf("failed to create sync adapter: %w", err)
	}
	c.adapter = adapter

	if tr != nil {
		go func() {
			if err := adapter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("peer connection lost", zap.Error(err))
				out.Printf("Connection lost: %v\n", err)
			}
		}()

		if err := adapter.Hello(ctx, opts.name); err != nil {
			logger.Warn("failed to greet peers", zap.Error(err))
		}
		if seat == netsync.AnySeat {
			out.Printf("Joined game %s. Waiting for the host to assign a seat.\n", gameID)
		} else {
			out.Printf("Playing seat %d of game %s.\n", seat+1, gameID)
		}
	}

	return c.Run(ctx, os.Stdin)
}

// connect opens the transport chosen by the flags. Hot-seat play returns a nil transport.
func connect(ctx context.Context, opts *options, peerID string, out *printer, logger *zap.Logger) (string, int, transport.Transport, error) {
	switch {
	case opts.host != "":
		return host(opts, peerID, out, logger)
	case opts.join != "":
		return join(ctx, opts, peerID, logger)
	case opts.relay != "":
		return relay(ctx, opts, peerID, out, logger)
	default:
		gameID := opts.gameID
		if gameID == "" {
			gameID = uuid.NewChannelName()
		}
		return gameID, netsync.HotSeat, nil, nil
	}
}

func host(opts *options, peerID string, out *printer, logger *zap.Logger) (string, int, transport.Transport, error) {
	hub, err := websocket.NewHub(&websocket.HubConfig{
		PeerID: peerID,
		Logger: logger.Named("hub"),
	})
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to create hub: %w", err)
	}

	listener, err := net.Listen("tcp", opts.host)
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to listen on %s: %w", opts.host, err)
	}

	mux := http.NewServeMux()
	mux.Handle(wsPath, hub)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server stopped", zap.Error(err))
		}
	}()

	gameID := opts.gameID
	if gameID == "" {
		gameID = uuid.NewChannelName()
	}

	addr := listener.Addr().String()
	if h, port, err := net.SplitHostPort(addr); err == nil && (h == "" || h == "::" || h == "0.0.0.0") {
		addr = net.JoinHostPort("localhost", port)
	}
	out.Printf("Hosting. Others join with: ludo -join \"ws://%s%s?game=%s\"\n", addr, wsPath, gameID)

	return gameID, 0, &hostTransport{Hub: hub, server: server}, nil
}

func join(ctx context.Context, opts *options, peerID string, logger *zap.Logger) (string, int, transport.Transport, error) {
	u, err := url.Parse(opts.join)
	if err != nil {
		return "", 0, nil, fmt.Errorf("invalid join url: %w", err)
	}
	gameID := opts.gameID
	if gameID == "" {
		gameID = u.Query().Get("game")
	}
	if gameID == "" {
		return "", 0, nil, errors.New("join url has no game ID, pass -game")
	}

	seat := opts.seat
	if seat < 0 {
		seat = netsync.AnySeat
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := websocket.Dial(dialCtx, &websocket.DialConfig{
		URL:    opts.join,
		PeerID: peerID,
		Logger: logger.Named("conn"),
	})
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to join %s: %w", opts.join, err)
	}
	return gameID, seat, conn, nil
}

func relay(ctx context.Context, opts *options, peerID string, out *printer, logger *zap.Logger) (string, int, transport.Transport, error) {
	seat := opts.seat
	gameID := opts.gameID
	switch {
	case gameID != "" && seat < 0:
		seat = netsync.AnySeat
	case gameID == "" && seat > 0:
		return "", 0, nil, errors.New("-game is required to join a relay game")
	case gameID == "":
		seat = 0
		gameID = uuid.NewChannelName()
		out.Printf("Relay game %s. Others join with: ludo -relay %s -game %s\n", gameID, opts.relay, gameID)
	}

	client := redis.NewClient(&redis.Options{Addr: opts.relay})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return "", 0, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.relay, err)
	}

	tr, err := redisTransport.New(ctx, &redisTransport.Config{
		RedisClient: client,
		GameID:      gameID,
		PeerID:      peerID,
		Logger:      logger.Named("relay"),
	})
	if err != nil {
		_ = client.Close()
		return "", 0, nil, err
	}
	return gameID, seat, &relayTransport{Transport: tr, client: client}, nil
}

// hostTransport shuts the HTTP server down along with the hub
type hostTransport struct {
	*websocket.Hub
	server *http.Server
}

func (t *hostTransport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := t.Hub.Close()
	if shutdownErr := t.server.Shutdown(ctx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// relayTransport closes the Redis client along with the subscription
type relayTransport struct {
	*redisTransport.Transport
	client *redis.Client
}

func (t *relayTransport) Close() error {
	err := t.Transport.Close()
	if clientErr := t.client.Close(); clientErr != nil && err == nil {
		err = clientErr
	}
	return err
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	return names
}
