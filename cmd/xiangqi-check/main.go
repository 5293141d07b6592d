package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-xiangqi/internal/adapter/xqpresenter"
	"github.com/park285/cheese-xiangqi/internal/xqclient"
	"github.com/park285/cheese-xiangqi/pkg/xqdto"
)

// xiangqi-check checks a running server: health, presets, and optionally a
// short scripted match between two throwaway users.
func main() {
	baseURL := flag.String("url", os.Getenv("XQ_BASE_URL"), "server base URL")
	script := flag.String("moves", "", "comma separated ICCS moves to play in a fresh match")
	tc := flag.String("tc", "", "time control for the scripted match")
	flag.Parse()

	if strings.TrimSpace(*baseURL) == "" {
		log.Fatal("-url or XQ_BASE_URL is required")
	}

	client := xqclient.NewClient(*baseURL, xqclient.WithTimeout(8*time.Second))
	f := xqpresenter.NewFormatter()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Println("/healthz ok")

	tcs, err := client.TimeControls(ctx)
	if err != nil {
		log.Printf("/timecontrols error: %v", err)
	} else {
		for _, v := range tcs {
			log.Printf("preset %s = %s", v.Name, v.TimeControl)
		}
	}

	if strings.TrimSpace(*script) == "" {
		return
	}

	suffix := fmt.Sprint(time.Now().UnixNano())
	red, black := "check-red-"+suffix, "check-black-"+suffix
	m, err := client.CreateMatch(ctx, xqdto.CreateMatchRequest{
		ChallengerID: red, ChallengerName: "Red",
		OpponentID: black, OpponentName: "Black",
		Color: "red", TimeControl: *tc,
	})
	if err != nil {
		log.Fatalf("create match: %v", err)
	}
	for i, mv := range strings.Split(*script, ",") {
		user := red
		if i%2 == 1 {
			user = black
		}
		m, err = client.Play(ctx, m.ID, user, strings.TrimSpace(mv))
		if err != nil {
			log.Fatalf("move %d (%s): %v", i+1, mv, err)
		}
	}
	fmt.Println(f.Match(m))

	if m.Status != "FINISHED" {
		if _, err := client.Resign(ctx, m.ID, red); err != nil {
			log.Fatalf("resign: %v", err)
		}
	}
	games, err := client.Games(ctx, red, 1)
	if err != nil {
		log.Fatalf("games: %v", err)
	}
	fmt.Println(f.History(games))
}
