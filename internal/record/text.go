package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-xiangqi/internal/domain"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

// BuildText renders a game as tag-pair headers plus a numbered ICCS move list.
func BuildText(g *domain.XiangqiGame) string {
	if g == nil {
		return ""
	}
	res := ResultToken(g.Result)
	date := g.EndedAt
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	b.WriteString("[Game \"Chinese Chess\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[Red \"%s\"]\n", sanitize(g.RedName)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitize(g.BlackName)))
	if strings.TrimSpace(g.TimeControl) != "" {
		b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", sanitize(g.TimeControl)))
	}
	if fen := strings.TrimSpace(g.InitialFEN); fen != "" && !isStart(fen) {
		b.WriteString(fmt.Sprintf("[FEN \"%s\"]\n", sanitize(fen)))
	}
	if strings.TrimSpace(g.ResultMethod) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitize(strings.ToLower(g.ResultMethod))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", res))

	for i := 0; i < len(g.Moves); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(g.Moves[i])))
		if i+1 < len(g.Moves) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(g.Moves[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(res)
	return b.String()
}

func ResultToken(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "red":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

func isStart(fen string) bool {
	board, _, _ := strings.Cut(fen, " ")
	return board == xiangqi.StartFEN
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
