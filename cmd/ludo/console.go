package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/render"
	gameService "github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	"github.com/KirkDiggler/ludo/internal/services/netsync"
)

const timelineLength = 8

const helpText = `Commands:
  start [n]   start a game with n players
  roll, r     roll the die
  move N, N   move piece N (1-4)
  board, b    show the board
  history, h  show the latest moves
  stats       show game statistics
  restart     return to setup
  sync        ask peers for a full snapshot
  quit, q     leave
`

// printer serializes terminal output between the input loop and the network loop
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// Publish implements messaging.Publisher by printing the message
func (p *printer) Publish(ctx context.Context, input *messaging.PublishInput) error {
	if input == nil || input.Message == "" {
		return nil
	}
	p.Printf("* %s\n", input.Message)
	return nil
}

type console struct {
	adapter   *netsync.Adapter
	games     gameService.Service
	messaging messaging.Service
	printer   *printer
	players   int
	names     []string
}

// Run reads commands until quit or end of input
func (c *console) Run(ctx context.Context, in io.Reader) error {
	c.printer.Printf("%s", helpText)

	scanner := bufio.NewScanner(in)
	for {
		c.printer.Printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := c.Exec(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line. Rejected intents are printed, not returned.
func (c *console) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := fields[0], fields[1:]
	if n, err := strconv.Atoi(cmd); err == nil {
		return false, c.move(ctx, n)
	}

	switch cmd {
	case "start":
		players := c.players
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				c.printer.Printf("Player count must be a number.\n")
				return false, nil
			}
			players = n
		}
		return false, c.start(ctx, players)
	case "roll", "r":
		return false, c.roll(ctx)
	case "move", "m":
		if len(args) == 0 {
			c.printer.Printf("Which piece? Use move 1-%d.\n", models.PiecesPerPlayer)
			return false, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			c.printer.Printf("Piece must be a number.\n")
			return false, nil
		}
		return false, c.move(ctx, n)
	case "board", "b":
		return false, c.show(ctx)
	case "history", "h":
		return false, c.timeline(ctx)
	case "stats":
		return false, c.stats(ctx)
	case "restart":
		return false, c.restart(ctx)
	case "sync":
		if err := c.adapter.RequestSync(ctx); err != nil {
			if errors.Is(err, netsync.ErrNoTransport) {
				c.printer.Printf("Not connected to any peers.\n")
				return false, nil
			}
			return false, err
		}
		c.printer.Printf("Snapshot requested.\n")
		return false, nil
	case "help", "?":
		c.printer.Printf("%s", helpText)
		return false, nil
	case "quit", "q", "exit":
		return true, nil
	default:
		c.printer.Printf("Unknown command %q. Type help.\n", cmd)
		return false, nil
	}
}

func (c *console) start(ctx context.Context, players int) error {
	output, err := c.adapter.StartGame(ctx, players, c.names)
	if err != nil {
		return err
	}
	if !output.Accepted {
		c.reject(ctx, output.Reason)
		return nil
	}
	c.draw(output.Game)
	return nil
}

func (c *console) roll(ctx context.Context) error {
	output, err := c.adapter.RollDice(ctx)
	if err != nil {
		return err
	}
	if !output.Accepted {
		c.reject(ctx, output.Reason)
		return nil
	}
	if len(output.MovablePieces) > 1 {
		pieces := make([]string, len(output.MovablePieces))
		for i, p := range output.MovablePieces {
			pieces[i] = strconv.Itoa(p + 1)
		}
		c.printer.Printf("Movable pieces: %s\n", strings.Join(pieces, ", "))
	}
	c.trail(output.Game, output.Actions)
	c.draw(output.Game)
	return nil
}

func (c *console) move(ctx context.Context, piece int) error {
	if piece < 1 || piece > models.PiecesPerPlayer {
		c.printer.Printf("Pieces are numbered 1-%d.\n", models.PiecesPerPlayer)
		return nil
	}
	output, err := c.adapter.MovePiece(ctx, piece-1)
	if err != nil {
		return err
	}
	if !output.Accepted {
		c.reject(ctx, output.Reason)
		return nil
	}
	c.trail(output.Game, output.Actions)
	c.draw(output.Game)
	return nil
}

func (c *console) restart(ctx context.Context) error {
	output, err := c.adapter.RestartGame(ctx)
	if err != nil {
		return err
	}
	c.draw(output.Game)
	return nil
}

func (c *console) show(ctx context.Context) error {
	session, err := c.adapter.Game(ctx)
	if err != nil {
		return err
	}
	c.draw(session)
	return nil
}

func (c *console) timeline(ctx context.Context) error {
	session, err := c.adapter.Game(ctx)
	if err != nil {
		return err
	}
	lines := render.Timeline(session, timelineLength)
	if len(lines) == 0 {
		c.printer.Printf("Nothing has happened yet.\n")
		return nil
	}
	c.printer.Printf("%s\n", strings.Join(lines, "\n"))
	return nil
}

func (c *console) stats(ctx context.Context) error {
	session, err := c.adapter.Game(ctx)
	if err != nil {
		return err
	}
	output, err := c.games.GetStats(ctx, &gameService.GetStatsInput{GameID: session.ID})
	if err != nil {
		return err
	}
	c.printer.Printf("%s", render.Stats(output.Stats))
	return nil
}

// draw prints the board and status; it is also the adapter's OnUpdate hook
func (c *console) draw(session *models.Session) {
	if session == nil {
		return
	}
	c.printer.Printf("\n%s\n%s", render.Board(session, render.StyleASCII), render.Status(session, render.StyleASCII))

	switch seat := c.adapter.LocalSeat(); {
	case seat == netsync.AnySeat:
		c.printer.Printf("Waiting for a seat.\n")
	case seat != netsync.HotSeat && session.Phase.IsInProgress() && session.Turn.ActivePlayer == seat:
		c.printer.Printf("Your turn.\n")
	}
}

// trail prints the cells each move of a transition passed through
func (c *console) trail(session *models.Session, actions []models.Action) {
	for _, a := range history.Filter(actions, models.ActionPieceMoved) {
		p := session.Player(a.Actor)
		if p == nil {
			continue
		}
		if path := render.Trail(p.Color, a.From, a.To); path != "" {
			c.printer.Printf("Piece %d: %s\n", a.Piece+1, path)
		}
	}
}

func (c *console) reject(ctx context.Context, reason error) {
	msg, err := c.messaging.GetErrorMessage(ctx, &messaging.GetErrorMessageInput{Err: reason})
	if err != nil || msg.Message == "" {
		c.printer.Printf("Rejected: %v\n", reason)
		return
	}
	c.printer.Printf("%s\n", msg.Message)
}
