package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/render"
	"github.com/bwmarrin/discordgo"
)

// Button IDs
const (
	ButtonJoinGame  = "ludo_join"
	ButtonStartGame = "ludo_start"
	ButtonRollDice  = "ludo_roll"
	ButtonShowBoard = "ludo_board"

	// ButtonMovePrefix is followed by the 1-based piece number
	ButtonMovePrefix = "ludo_move_"
)

// timelineLength is the number of history lines shown under the board
const timelineLength = 5

var embedColors = map[models.Color]int{
	models.ColorRed:    0xe74c3c,
	models.ColorBlue:   0x3498db,
	models.ColorYellow: 0xf1c40f,
	models.ColorGreen:  0x2ecc71,
}

// gameEmbed draws the board, the seats and the latest moves
func gameEmbed(session *models.Session, title string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: render.Board(session, render.StyleEmoji),
		Color:       0x95a5a6,
	}

	if p := session.ActivePlayer(); p != nil && session.Phase.IsInProgress() {
		embed.Color = embedColors[p.Color]
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Status",
		Value: render.Status(session, render.StyleEmoji),
	})

	if lines := render.Timeline(session, timelineLength); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Recent",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

// lobbyEmbed lists the seats taken so far. Colors follow the seated count,
// since that is the player count the game starts with.
func lobbyEmbed(session *models.Session, seats []*models.Seat) *discordgo.MessageEmbed {
	colors := models.SeatColors(max(len(seats), 2))

	var sb strings.Builder
	for i := 0; i < max(session.SelectedPlayerCount, len(seats)); i++ {
		if i < len(seats) && i < len(colors) {
			fmt.Fprintf(&sb, "%s <@%s>\n", colors[i].DisplayName(), seats[i].UserID)
			continue
		}
		sb.WriteString("*open*\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Ludo lobby (%d/%d)", len(seats), session.SelectedPlayerCount),
		Description: sb.String(),
		Color:       0x95a5a6,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Join, then start once at least two players are seated. Colors follow the number of seated players."},
	}
}

// leaderboardEmbed ranks the channel's winners and lists the latest games
func leaderboardEmbed(entries []*models.LeaderboardEntry, recent []*models.Result) *discordgo.MessageEmbed {
	var sb strings.Builder
	for i, e := range entries {
		wins := "wins"
		if e.Wins == 1 {
			wins = "win"
		}
		fmt.Fprintf(&sb, "%d. <@%s> %d %s\n", i+1, e.UserID, e.Wins, wins)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Ludo leaderboard",
		Description: sb.String(),
		Color:       0xf1c40f,
	}

	if len(recent) > 0 {
		lines := make([]string, len(recent))
		for i, r := range recent {
			lines[i] = fmt.Sprintf("%s won as %s (%d players, %d rolls) <t:%d:R>",
				r.WinnerName, r.Color.DisplayName(), r.Players, r.Rolls, r.FinishedAt.Unix())
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Latest games",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

func lobbyComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Join",
					Style:    discordgo.SuccessButton,
					CustomID: ButtonJoinGame,
				},
				discordgo.Button{
					Label:    "Start",
					Style:    discordgo.PrimaryButton,
					CustomID: ButtonStartGame,
				},
			},
		},
	}
}

// turnComponents offers one button per movable piece while a move is
// pending and a roll button otherwise
func turnComponents(session *models.Session, movable []int) []discordgo.MessageComponent {
	if !session.Phase.IsInProgress() {
		return nil
	}

	var buttons []discordgo.MessageComponent
	if session.Turn.MoveRequired {
		for _, piece := range movable {
			buttons = append(buttons, discordgo.Button{
				Label:    fmt.Sprintf("Move %d", piece+1),
				Style:    discordgo.PrimaryButton,
				CustomID: fmt.Sprintf("%s%d", ButtonMovePrefix, piece+1),
			})
		}
	} else {
		buttons = append(buttons, discordgo.Button{
			Label:    "Roll",
			Style:    discordgo.PrimaryButton,
			CustomID: ButtonRollDice,
			Emoji:    &discordgo.ComponentEmoji{Name: "🎲"},
		})
	}

	if len(buttons) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// parseMoveButton returns the 0-based piece slot of a move button ID
func parseMoveButton(customID string) (int, bool) {
	if !strings.HasPrefix(customID, ButtonMovePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(customID, ButtonMovePrefix))
	if err != nil {
		return 0, false
	}
	if n < 1 || n > models.PiecesPerPlayer {
		return 0, false
	}
	return n - 1, true
}
