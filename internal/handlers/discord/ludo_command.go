package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/render"
	"github.com/KirkDiggler/ludo/internal/repositories/results"
	"github.com/KirkDiggler/ludo/internal/repositories/seat"
	"github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Subcommand names
const (
	SubcommandNew     = "new"
	SubcommandJoin    = "join"
	SubcommandStart   = "start"
	SubcommandRoll    = "roll"
	SubcommandMove    = "move"
	SubcommandBoard   = "board"
	SubcommandStats   = "stats"
	SubcommandRestart = "restart"

	SubcommandLeaderboard = "leaderboard"
)

// LudoCommandConfig holds the collaborators of the /ludo command
type LudoCommandConfig struct {
	GameService game.Service
	SeatRepo    seat.Repository
	ResultsRepo results.Repository
	Messaging   messaging.Service
	Clock       clock.Clock
	Logger      *zap.Logger
}

// LudoCommand handles the /ludo command and its buttons
type LudoCommand struct {
	BaseCommand
	gameService game.Service
	seatRepo    seat.Repository
	resultsRepo results.Repository
	messaging   messaging.Service
	clock       clock.Clock
	logger      *zap.Logger

	// joinMu serializes seat assignment
	joinMu sync.Mutex
}

// NewLudoCommand creates a new ludo command handler
func NewLudoCommand(cfg *LudoCommandConfig) (*LudoCommand, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}
	if cfg.SeatRepo == nil {
		return nil, errors.New("seat repository cannot be nil")
	}
	if cfg.ResultsRepo == nil {
		return nil, errors.New("results repository cannot be nil")
	}
	if cfg.Messaging == nil {
		return nil, errors.New("messaging service cannot be nil")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	minPlayers, maxPlayers := 2.0, 4.0
	minPiece, maxPiece := 1.0, float64(models.PiecesPerPlayer)

	return &LudoCommand{
		BaseCommand: BaseCommand{
			Name:        "ludo",
			Description: "Play ludo in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandNew,
					Description: "Open a new game in this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "players",
							Description: "Number of seats (2-4)",
							MinValue:    &minPlayers,
							MaxValue:    maxPlayers,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandJoin,
					Description: "Take the next open seat",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandStart,
					Description: "Start the game with the seated players",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandRoll,
					Description: "Roll the die",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandMove,
					Description: "Move one of your pieces",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "piece",
							Description: "Piece number (1-4)",
							Required:    true,
							MinValue:    &minPiece,
							MaxValue:    maxPiece,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandBoard,
					Description: "Show the board",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandStats,
					Description: "Show game statistics",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandRestart,
					Description: "Reset the game to the lobby",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandLeaderboard,
					Description: "Show who has won the most games here",
				},
			},
		},
		gameService: cfg.GameService,
		seatRepo:    cfg.SeatRepo,
		resultsRepo: cfg.ResultsRepo,
		messaging:   cfg.Messaging,
		clock:       clk,
		logger:      logger,
	}, nil
}

// Handle processes a Discord interaction for the ludo command
func (c *LudoCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name || len(data.Options) == 0 {
		return nil
	}

	sub := data.Options[0]
	args := make(map[string]int64)
	for _, opt := range sub.Options {
		if opt.Type == discordgo.ApplicationCommandOptionInteger {
			args[opt.Name] = opt.IntValue()
		}
	}

	userID, username := userFromInteraction(i)
	r, err := c.dispatch(context.Background(), sub.Name, i.ChannelID, userID, username, args)
	if err != nil {
		c.logger.Error("failed to handle subcommand",
			zap.String("subcommand", sub.Name),
			zap.String("channel_id", i.ChannelID),
			zap.Error(err),
		)
		return RespondWithError(s, i, c.errorText(err))
	}
	return respond(s, i, r)
}

// HandleButton processes a click on one of the game buttons
func (c *LudoCommand) HandleButton(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	customID := i.MessageComponentData().CustomID

	var sub string
	args := make(map[string]int64)
	switch customID {
	case ButtonJoinGame:
		sub = SubcommandJoin
	case ButtonStartGame:
		sub = SubcommandStart
	case ButtonRollDice:
		sub = SubcommandRoll
	case ButtonShowBoard:
		sub = SubcommandBoard
	default:
		piece, ok := parseMoveButton(customID)
		if !ok {
			return fmt.Errorf("unknown button: %s", customID)
		}
		sub = SubcommandMove
		args["piece"] = int64(piece + 1)
	}

	userID, username := userFromInteraction(i)
	r, err := c.dispatch(context.Background(), sub, i.ChannelID, userID, username, args)
	if err != nil {
		c.logger.Error("failed to handle button",
			zap.String("custom_id", customID),
			zap.String("channel_id", i.ChannelID),
			zap.Error(err),
		)
		return RespondWithError(s, i, c.errorText(err))
	}
	return respond(s, i, r)
}

func (c *LudoCommand) dispatch(ctx context.Context, sub, channelID, userID, username string, args map[string]int64) (*reply, error) {
	switch sub {
	case SubcommandNew:
		return c.handleNew(ctx, channelID, userID, username, int(args["players"]))
	case SubcommandJoin:
		return c.handleJoin(ctx, channelID, userID, username)
	case SubcommandStart:
		return c.handleStart(ctx, channelID, userID)
	case SubcommandRoll:
		return c.handleRoll(ctx, channelID, userID)
	case SubcommandMove:
		return c.handleMove(ctx, channelID, userID, int(args["piece"])-1)
	case SubcommandBoard:
		return c.handleBoard(ctx, channelID)
	case SubcommandStats:
		return c.handleStats(ctx, channelID)
	case SubcommandRestart:
		return c.handleRestart(ctx, channelID, userID)
	case SubcommandLeaderboard:
		return c.handleLeaderboard(ctx, channelID)
	default:
		return nil, fmt.Errorf("unknown subcommand: %s", sub)
	}
}

func (c *LudoCommand) errorText(err error) string {
	output, msgErr := c.messaging.GetErrorMessage(context.Background(), &messaging.GetErrorMessageInput{Err: err})
	if msgErr != nil {
		return err.Error()
	}
	return output.Message
}

// rejection turns an engine rejection into an ephemeral reply
func (c *LudoCommand) rejection(ctx context.Context, reason error) (*reply, error) {
	output, err := c.messaging.GetErrorMessage(ctx, &messaging.GetErrorMessageInput{Err: reason})
	if err != nil {
		return nil, err
	}
	return ephemeral(output.Message), nil
}

// channelGame returns the game of a channel, or nil when there is none
func (c *LudoCommand) channelGame(ctx context.Context, channelID string) (*models.Session, error) {
	output, err := c.gameService.GetGameByChannel(ctx, &game.GetGameByChannelInput{ChannelID: channelID})
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return output.Game, nil
}

// userSeat returns the seat of a user, or nil when the user is not seated
func (c *LudoCommand) userSeat(ctx context.Context, gameID, userID string) (*models.Seat, error) {
	s, err := c.seatRepo.GetSeat(ctx, &seat.GetSeatInput{GameID: gameID, UserID: userID})
	if err != nil {
		if errors.Is(err, seat.ErrSeatNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (c *LudoCommand) handleNew(ctx context.Context, channelID, userID, username string, players int) (*reply, error) {
	existing, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.Phase.IsFinished() {
		return ephemeral("There's already a game in this channel. Use `/ludo restart` or finish it first."), nil
	}
	if existing != nil {
		if err := c.seatRepo.ClearGame(ctx, &seat.ClearGameInput{GameID: existing.ID}); err != nil {
			return nil, err
		}
	}

	created, err := c.gameService.CreateGame(ctx, &game.CreateGameInput{
		ChannelID:   channelID,
		PlayerCount: players,
	})
	if err != nil {
		if errors.Is(err, game.ErrGameAlreadyExists) {
			return ephemeral("There's already a game in this channel."), nil
		}
		return nil, err
	}

	creator := &models.Seat{
		GameID:   created.Game.ID,
		UserID:   userID,
		UserName: username,
		Ordinal:  0,
		JoinedAt: c.clock.Now(),
	}
	if err := c.seatRepo.SaveSeat(ctx, &seat.SaveSeatInput{Seat: creator}); err != nil {
		return nil, err
	}

	c.logger.Info("lobby opened",
		zap.String("game_id", created.Game.ID),
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
	)

	return &reply{
		Embed:      lobbyEmbed(created.Game, []*models.Seat{creator}),
		Components: lobbyComponents(),
	}, nil
}

func (c *LudoCommand) handleJoin(ctx context.Context, channelID, userID, username string) (*reply, error) {
	session, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return ephemeral("No game in this channel. Use `/ludo new` to open one."), nil
	}

	c.joinMu.Lock()
	defer c.joinMu.Unlock()

	existing, err := c.userSeat(ctx, session.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		seated := len(session.Players)
		if session.Phase.IsSetup() {
			seats, err := c.seatRepo.GetSeatsInGame(ctx, &seat.GetSeatsInGameInput{GameID: session.ID})
			if err != nil {
				return nil, err
			}
			seated = len(seats.Seats)
		}
		msg, err := c.messaging.GetJoinGameMessage(ctx, &messaging.GetJoinGameMessageInput{
			PlayerName:    username,
			Color:         seatColor(session, existing.Ordinal, seated),
			AlreadyJoined: true,
		})
		if err != nil {
			return nil, err
		}
		return ephemeral(msg.Message), nil
	}

	if !session.Phase.IsSetup() {
		return ephemeral("The game has already started. Wait for the next one!"), nil
	}

	seats, err := c.seatRepo.GetSeatsInGame(ctx, &seat.GetSeatsInGameInput{GameID: session.ID})
	if err != nil {
		return nil, err
	}
	if len(seats.Seats) >= session.SelectedPlayerCount {
		return ephemeral("Every seat is taken."), nil
	}

	joined := &models.Seat{
		GameID:   session.ID,
		UserID:   userID,
		UserName: username,
		Ordinal:  len(seats.Seats),
		JoinedAt: c.clock.Now(),
	}
	if err := c.seatRepo.SaveSeat(ctx, &seat.SaveSeatInput{Seat: joined}); err != nil {
		return nil, err
	}

	msg, err := c.messaging.GetJoinGameMessage(ctx, &messaging.GetJoinGameMessageInput{
		PlayerName: username,
		Color:      seatColor(session, joined.Ordinal, len(seats.Seats)+1),
	})
	if err != nil {
		return nil, err
	}

	return &reply{
		Content:    msg.Message,
		Embed:      lobbyEmbed(session, append(seats.Seats, joined)),
		Components: lobbyComponents(),
	}, nil
}

func (c *LudoCommand) handleStart(ctx context.Context, channelID, userID string) (*reply, error) {
	session, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return ephemeral("No game in this channel. Use `/ludo new` to open one."), nil
	}

	seats, err := c.seatRepo.GetSeatsInGame(ctx, &seat.GetSeatsInGameInput{GameID: session.ID})
	if err != nil {
		return nil, err
	}
	if !seated(seats.Seats, userID) {
		return ephemeral("Only seated players can start the game."), nil
	}
	if len(seats.Seats) < 2 {
		return ephemeral("At least two players need to join first."), nil
	}

	names := make([]string, len(seats.Seats))
	for i, s := range seats.Seats {
		names[i] = s.UserName
	}

	output, err := c.gameService.StartGame(ctx, &game.StartGameInput{
		GameID:      session.ID,
		PlayerCount: len(seats.Seats),
		Names:       names,
	})
	if err != nil {
		return nil, err
	}
	if !output.Accepted {
		return c.rejection(ctx, output.Reason)
	}

	return &reply{
		Embed:      gameEmbed(output.Game, "Ludo"),
		Components: turnComponents(output.Game, nil),
	}, nil
}

// turnSeat resolves the acting user's seat in a running game
func (c *LudoCommand) turnSeat(ctx context.Context, channelID, userID string) (*models.Session, *models.Seat, *reply, error) {
	session, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, nil, nil, err
	}
	if session == nil {
		return nil, nil, ephemeral("No game in this channel. Use `/ludo new` to open one."), nil
	}

	s, err := c.userSeat(ctx, session.ID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if s == nil {
		return nil, nil, ephemeral("You're not playing in this game."), nil
	}
	return session, s, nil, nil
}

func (c *LudoCommand) handleRoll(ctx context.Context, channelID, userID string) (*reply, error) {
	session, s, r, err := c.turnSeat(ctx, channelID, userID)
	if err != nil || r != nil {
		return r, err
	}

	output, err := c.gameService.RollDice(ctx, &game.RollDiceInput{GameID: session.ID, Player: s.Ordinal})
	if err != nil {
		return nil, err
	}
	if !output.Accepted {
		return c.rejection(ctx, output.Reason)
	}

	title := fmt.Sprintf("%s rolled a %d", render.Name(output.Game, s.Ordinal), output.Value)
	switch {
	case output.Forfeited:
		title += ": three sixes, turn forfeited"
	case output.Passed:
		title += ": no legal move"
	case output.AutoMove != nil && output.AutoMove.Won:
		title = fmt.Sprintf("%s wins!", render.Name(output.Game, s.Ordinal))
		c.recordWin(ctx, output.Game, s)
	case output.AutoMove != nil:
		title += " and moved its only movable piece"
	}

	return &reply{
		Embed:      gameEmbed(output.Game, title),
		Components: turnComponents(output.Game, output.MovablePieces),
	}, nil
}

func (c *LudoCommand) handleMove(ctx context.Context, channelID, userID string, piece int) (*reply, error) {
	session, s, r, err := c.turnSeat(ctx, channelID, userID)
	if err != nil || r != nil {
		return r, err
	}

	output, err := c.gameService.MovePiece(ctx, &game.MovePieceInput{GameID: session.ID, Player: s.Ordinal, Piece: piece})
	if err != nil {
		return nil, err
	}
	if !output.Accepted {
		return c.rejection(ctx, output.Reason)
	}

	name := render.Name(output.Game, s.Ordinal)
	title := fmt.Sprintf("%s moved piece %d", name, piece+1)
	switch {
	case output.Won:
		title = fmt.Sprintf("%s wins!", name)
		c.recordWin(ctx, output.Game, s)
	case len(output.Captured) > 0:
		title += " and captured!"
	case output.ExtraTurn:
		title += " and rolls again"
	}

	return &reply{
		Embed:      gameEmbed(output.Game, title),
		Components: turnComponents(output.Game, nil),
	}, nil
}

func (c *LudoCommand) handleBoard(ctx context.Context, channelID string) (*reply, error) {
	session, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return ephemeral("No game in this channel. Use `/ludo new` to open one."), nil
	}

	if session.Phase.IsSetup() {
		seats, err := c.seatRepo.GetSeatsInGame(ctx, &seat.GetSeatsInGameInput{GameID: session.ID})
		if err != nil {
			return nil, err
		}
		return &reply{Embed: lobbyEmbed(session, seats.Seats), Components: lobbyComponents()}, nil
	}

	var movable []int
	if session.Turn.MoveRequired {
		output, err := c.gameService.GetMovablePieces(ctx, &game.GetMovablePiecesInput{
			GameID: session.ID,
			Player: session.Turn.ActivePlayer,
		})
		if err != nil {
			return nil, err
		}
		movable = output.Pieces
	}

	return &reply{
		Embed:      gameEmbed(session, "Ludo"),
		Components: turnComponents(session, movable),
	}, nil
}

func (c *LudoCommand) handleStats(ctx context.Context, channelID string) (*reply, error) {
	session, err := c.channelGame(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return ephemeral("No game in this channel. Use `/ludo new` to open one."), nil
	}
	if session.Phase.IsSetup() {
		return ephemeral("The game hasn't started yet."), nil
	}

	output, err := c.gameService.GetStats(ctx, &game.GetStatsInput{GameID: session.ID})
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Game statistics",
		Description: render.Stats(output.Stats),
		Color:       0x95a5a6,
	}
	if lines := render.Captures(session, timelineLength); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Captures",
			Value: strings.Join(lines, "\n"),
		})
	}

	return &reply{Embed: embed}, nil
}

func (c *LudoCommand) handleRestart(ctx context.Context, channelID, userID string) (*reply, error) {
	session, s, r, err := c.turnSeat(ctx, channelID, userID)
	if err != nil || r != nil {
		return r, err
	}

	output, err := c.gameService.RestartGame(ctx, &game.RestartGameInput{GameID: session.ID})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game restarted",
		zap.String("game_id", session.ID),
		zap.String("user_id", userID),
		zap.Int("seat", s.Ordinal),
	)

	seats, err := c.seatRepo.GetSeatsInGame(ctx, &seat.GetSeatsInGameInput{GameID: session.ID})
	if err != nil {
		return nil, err
	}

	return &reply{
		Content:    "The game was reset. Seats are kept; press Start to play again.",
		Embed:      lobbyEmbed(output.Game, seats.Seats),
		Components: lobbyComponents(),
	}, nil
}

// recordWin credits the winner on the channel leaderboard; failures are logged
func (c *LudoCommand) recordWin(ctx context.Context, session *models.Session, winner *models.Seat) {
	finishedAt := session.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = c.clock.Now()
	}

	stats := history.Summarize(session)
	result := &models.Result{
		ID:         fmt.Sprintf("%s:%d", session.ID, finishedAt.UnixNano()),
		GameID:     session.ID,
		ChannelID:  session.ChannelID,
		WinnerID:   winner.UserID,
		WinnerName: render.Name(session, winner.Ordinal),
		Color:      seatColor(session, winner.Ordinal, len(session.Players)),
		Players:    len(session.Players),
		Rolls:      stats.TotalRolls,
		Captures:   stats.Captures,
		FinishedAt: finishedAt,
	}

	err := c.resultsRepo.RecordResult(ctx, &results.RecordResultInput{Result: result})
	if err != nil && !errors.Is(err, results.ErrDuplicateResult) {
		c.logger.Error("failed to record result",
			zap.String("game_id", session.ID),
			zap.String("winner_id", winner.UserID),
			zap.Error(err),
		)
	}
}

func (c *LudoCommand) handleLeaderboard(ctx context.Context, channelID string) (*reply, error) {
	board, err := c.resultsRepo.GetLeaderboard(ctx, &results.GetLeaderboardInput{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	if len(board.Entries) == 0 {
		return ephemeral("Nobody has won a game in this channel yet."), nil
	}

	recent, err := c.resultsRepo.GetRecentResults(ctx, &results.GetRecentResultsInput{
		ChannelID: channelID,
		Limit:     timelineLength,
	})
	if err != nil {
		return nil, err
	}

	return &reply{Embed: leaderboardEmbed(board.Entries, recent.Results)}, nil
}

func seated(seats []*models.Seat, userID string) bool {
	for _, s := range seats {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// seatColor is the color of a seat. Before the start it follows the seated
// count, which is the player count the game starts with.
func seatColor(session *models.Session, ordinal, seated int) models.Color {
	if p := session.Player(ordinal); p != nil && !session.Phase.IsSetup() {
		return p.Color
	}
	colors := models.SeatColors(max(seated, 2))
	if ordinal < 0 || ordinal >= len(colors) {
		return ""
	}
	return colors[ordinal]
}
