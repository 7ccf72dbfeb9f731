package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/common/uuid"
	"github.com/KirkDiggler/ludo/internal/config"
	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/handlers/discord"
	"github.com/KirkDiggler/ludo/internal/repositories/game"
	"github.com/KirkDiggler/ludo/internal/repositories/results"
	"github.com/KirkDiggler/ludo/internal/repositories/seat"
	gameService "github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DiscordToken == "" {
		logger.Fatal("DISCORD_TOKEN environment variable is required")
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// Initialize repositories
	gameRepo, err := game.NewRedis(&game.Config{
		RedisClient: redisClient,
		TTL:         cfg.SessionTTL,
	})
	if err != nil {
		logger.Fatal("failed to create game repository", zap.Error(err))
	}

	active, err := gameRepo.GetActiveGames(ctx, &game.GetActiveGamesInput{})
	if err != nil {
		logger.Warn("failed to list active games", zap.Error(err))
	} else {
		logger.Info("resuming games", zap.Int("count", len(active.Games)))
	}

	seatRepo, err := seat.NewRedis(&seat.Config{
		RedisClient: redisClient,
		TTL:         cfg.SessionTTL,
	})
	if err != nil {
		logger.Fatal("failed to create seat repository", zap.Error(err))
	}

	resultsRepo, err := results.NewRedis(&results.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		logger.Fatal("failed to create results repository", zap.Error(err))
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}

	publisher, err := discord.NewPublisher(session)
	if err != nil {
		logger.Fatal("failed to create publisher", zap.Error(err))
	}

	messagingSvc, err := messaging.NewService(&messaging.ServiceConfig{
		DefaultTone: messaging.MessageTone(cfg.Tone),
	})
	if err != nil {
		logger.Fatal("failed to create messaging service", zap.Error(err))
	}

	notifier, err := messaging.NewNotifier(&messaging.NotifierConfig{
		Messaging: messagingSvc,
		Publisher: publisher,
		Logger:    logger.Named("notifier"),
	})
	if err != nil {
		logger.Fatal("failed to create notifier", zap.Error(err))
	}

	clk := clock.New()

	gameSvc, err := gameService.New(&gameService.Config{
		DefaultRules:  cfg.Rules,
		GameRepo:      gameRepo,
		DiceRoller:    dice.New(&dice.Config{}),
		Clock:         clk,
		UUIDGenerator: uuid.New(),
		Notifier:      notifier,
		Logger:        logger.Named("game"),
	})
	if err != nil {
		logger.Fatal("failed to create game service", zap.Error(err))
	}

	ludoCmd, err := discord.NewLudoCommand(&discord.LudoCommandConfig{
		GameService: gameSvc,
		SeatRepo:    seatRepo,
		ResultsRepo: resultsRepo,
		Messaging:   messagingSvc,
		Clock:       clk,
		Logger:      logger.Named("ludo"),
	})
	if err != nil {
		logger.Fatal("failed to create ludo command", zap.Error(err))
	}

	bot, err := discord.New(&discord.Config{
		Session:       session,
		ApplicationID: cfg.ApplicationID,
		GuildID:       cfg.GuildID,
		LudoCommand:   ludoCmd,
		Logger:        logger.Named("discord"),
	})
	if err != nil {
		logger.Fatal("failed to create discord bot", zap.Error(err))
	}

	// Start the bot
	if err := bot.Start(); err != nil {
		logger.Fatal("failed to start discord bot", zap.Error(err))
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown the bot
	if err := bot.Stop(); err != nil {
		logger.Error("error stopping bot", zap.Error(err))
	}

	logger.Info("bot has been shut down")
}
