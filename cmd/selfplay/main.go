package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/config"
	"xiangqi/internal/engine"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (level table)")
	redLevel := flag.String("red", string(engine.LevelAlphaBeta), "level playing red in the first game")
	blackLevel := flag.String("black", string(engine.LevelGreedy), "level playing black in the first game")
	games := flag.Int("games", 10, "number of games to play")
	parallel := flag.Int("parallel", 4, "games played at the same time")
	maxMoves := flag.Int("maxmoves", 300, "plies before a game is scored as a draw")
	moveTime := flag.Duration("movetime", 2*time.Second, "time limit per move for searching levels")
	fen := flag.String("fen", "", "start position (default: standard opening)")
	noSwap := flag.Bool("noswap", false, "keep colours fixed instead of alternating")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	a, err := engine.FindLevel(cfg.Levels, engine.Level(*redLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("red level")
	}
	b, err := engine.FindLevel(cfg.Levels, engine.Level(*blackLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("black level")
	}

	mc := matchConfig{
		Red:       PlayerConfig{Name: fmt.Sprintf("%s (%s)", a.Name, a.Level), Level: a},
		Black:     PlayerConfig{Name: fmt.Sprintf("%s (%s)", b.Name, b.Level), Level: b},
		Games:     *games,
		Parallel:  *parallel,
		MaxMoves:  *maxMoves,
		MoveTime:  *moveTime,
		StartFEN:  *fen,
		SwapSides: !*noSwap,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	sum, err := runMatch(ctx, mc)
	if err != nil {
		log.Fatal().Err(err).Msg("match aborted")
	}
	printSummary(mc, sum)
	log.Info().Dur("elapsed", time.Since(start)).Msg("selfplay finished")
}
