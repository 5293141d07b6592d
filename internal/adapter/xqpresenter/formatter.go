package xqpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-xiangqi/internal/util"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
	"github.com/park285/cheese-xiangqi/pkg/xqdto"
)

const (
	historyHeader = "♜ 최근 대국"
	recentLimit   = 6
)

// Formatter renders API views as plain text blocks for terminals and chat.
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

// Board draws the position with Black's back rank on top. Red pieces are
// upper case.
func (f *Formatter) Board(fen string) string {
	b, _, err := xiangqi.ParsePosition(fen)
	if err != nil {
		return "(잘못된 국면: " + err.Error() + ")"
	}
	var sb strings.Builder
	for row := 0; row < xiangqi.Rows; row++ {
		sb.WriteString(fmt.Sprintf("%d ", xiangqi.Rows-1-row))
		for col := 0; col < xiangqi.Cols; col++ {
			if p, ok := b.At(xiangqi.Coord{Row: row, Col: col}); ok {
				sb.WriteByte(p.Letter())
			} else {
				sb.WriteByte('.')
			}
			if col < xiangqi.Cols-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\n")
		if row == 4 {
			sb.WriteString("  ~~~~~~~~~~~~~~~~~\n")
		}
	}
	sb.WriteString("  a b c d e f g h i")
	return sb.String()
}

func (f *Formatter) Match(v *xqdto.MatchView) string {
	if v == nil {
		return "대국 정보를 불러오지 못했습니다."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♟️ 대국 %s\n", v.ID))
	sb.WriteString(fmt.Sprintf("• 홍: %s (%s)\n", displayName(v.RedName, v.RedID), v.Clock.Red))
	sb.WriteString(fmt.Sprintf("• 흑: %s (%s)\n", displayName(v.BlackName, v.BlackID), v.Clock.Black))
	sb.WriteString(fmt.Sprintf("• 시간: %s\n", v.TimeControl))
	sb.WriteString(fmt.Sprintf("• 최근 수: %s\n", formatRecentMoves(v.Moves)))
	if v.Status == "FINISHED" {
		sb.WriteString("• ")
		sb.WriteString(formatOutcome(v.Outcome, v.Method))
		sb.WriteString("\n")
	} else {
		sb.WriteString(fmt.Sprintf("• 차례: %s", sideLabel(v.Turn)))
		if v.GameStatus == "check" {
			sb.WriteString(" (장군)")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(f.Board(v.FEN))
	return sb.String()
}

func (f *Formatter) History(games []xqdto.GameRecord) string {
	if len(games) == 0 {
		return "기록된 대국이 없습니다."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteString("\n\n")
	for i, g := range games {
		sb.WriteString(fmt.Sprintf("%d. %s vs %s | %s | %d수 | %s\n",
			i+1,
			displayName(g.RedName, g.RedID),
			displayName(g.BlackName, g.BlackID),
			formatOutcome(g.Result, g.ResultMethod),
			len(g.Moves),
			formatShortTime(g.EndedAt),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Game prints a recorded game's text without the duplicated header line.
func (f *Formatter) Game(g *xqdto.GameRecord) string {
	if g == nil {
		return "대국 기록을 찾을 수 없습니다."
	}
	body := util.StripLeadingHeader(g.Text, "[Game \"Chinese Chess\"]")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♜ %s vs %s", displayName(g.RedName, g.RedID), displayName(g.BlackName, g.BlackID)))
	if d := formatGameDuration(g.Duration); d != "" {
		sb.WriteString(" (" + d + ")")
	}
	sb.WriteString("\n")
	sb.WriteString(body)
	return sb.String()
}

func (f *Formatter) Profile(p *xqdto.Profile) string {
	if p == nil {
		return "프로필이 없습니다."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♞ %s\n", displayName(p.PlayerName, p.PlayerID)))
	sb.WriteString(fmt.Sprintf("• 레이팅: %d\n", p.Rating))
	sb.WriteString(fmt.Sprintf("• 전적: %d승 %d패 %d무 (%d판)\n", p.Wins, p.Losses, p.Draws, p.GamesPlayed))
	if p.Streak > 1 {
		sb.WriteString(fmt.Sprintf("• %d%s\n", p.Streak, formatStreakSuffix(p.StreakType)))
	}
	sb.WriteString(fmt.Sprintf("• 최근 대국: %s", formatShortTime(p.LastPlayedAt)))
	return sb.String()
}

func displayName(name, id string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return id
}

func sideLabel(side string) string {
	if side == "black" {
		return "흑"
	}
	return "홍"
}

func formatRecentMoves(moves []xqdto.MoveView) string {
	if len(moves) == 0 {
		return "-"
	}
	start := 0
	if len(moves) > recentLimit {
		start = len(moves) - recentLimit
	}
	parts := make([]string, 0, recentLimit)
	for _, m := range moves[start:] {
		parts = append(parts, m.Move)
	}
	out := strings.Join(parts, " ")
	if start > 0 {
		out = "… " + out
	}
	return out
}

func formatOutcome(outcome, method string) string {
	var who string
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "red":
		who = "홍 승"
	case "black":
		who = "흑 승"
	case "draw":
		return "🤝 무승부"
	default:
		return "진행 중"
	}
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "checkmate":
		return who + " (외통)"
	case "stalemate":
		return who + " (수 없음)"
	case "resignation":
		return who + " (기권)"
	case "time_forfeit":
		return who + " (시간패)"
	default:
		return who
	}
}

func formatStreakSuffix(streakType string) string {
	switch strings.ToLower(strings.TrimSpace(streakType)) {
	case "win":
		return "연승"
	case "loss":
		return "연패"
	case "draw":
		return "연속 무승부"
	default:
		return "연속 기록"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return util.FormatKST(t, "2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Second).String()
}
