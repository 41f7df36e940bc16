package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

// 一方棋手的配置
type PlayerConfig struct {
	Name  string
	Level engine.LevelConfig
}

type matchConfig struct {
	Red, Black PlayerConfig
	Games      int
	Parallel   int
	MaxMoves   int // 超过这个步数判和
	MoveTime   time.Duration
	StartFEN   string
	SwapSides  bool // 奇数局双方换边
}

type gameOutcome struct {
	Index  int
	Result xiangqi.Result
	Moves  int
	// 本局执红的是不是 cfg.Red
	RedIsA bool
}

type matchSummary struct {
	AWins, BWins, Draws int
	Outcomes            []gameOutcome
}

// runMatch 并发下多盘，每盘每方各自新建 Player，互不共享
func runMatch(ctx context.Context, cfg matchConfig) (matchSummary, error) {
	outcomes := make([]gameOutcome, cfg.Games)
	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallel, 1))
	for i := range cfg.Games {
		g.Go(func() error {
			red, black := cfg.Red, cfg.Black
			redIsA := true
			if cfg.SwapSides && i%2 == 1 {
				red, black = black, red
				redIsA = false
			}
			res, moves, err := playGame(ctx, cfg, red, black)
			if err != nil {
				return errors.Wrapf(err, "game %d", i+1)
			}
			outcomes[i] = gameOutcome{Index: i, Result: res, Moves: moves, RedIsA: redIsA}

			mu.Lock()
			done++
			log.Info().
				Int("game", i+1).
				Int("done", done).
				Str("red", red.Name).
				Str("black", black.Name).
				Stringer("result", res).
				Int("moves", moves).
				Msg("game finished")
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return matchSummary{}, err
	}

	sum := matchSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch {
		case !o.Result.Decisive():
			sum.Draws++
		case (o.Result == xiangqi.RedWin) == o.RedIsA:
			sum.AWins++
		default:
			sum.BWins++
		}
	}
	return sum, nil
}

func playGame(ctx context.Context, cfg matchConfig, red, black PlayerConfig) (xiangqi.Result, int, error) {
	board, side := xiangqi.NewInitialBoard(), xiangqi.Red
	if cfg.StartFEN != "" {
		var err error
		if board, side, err = xiangqi.DecodeFEN(cfg.StartFEN); err != nil {
			return xiangqi.Ongoing, 0, err
		}
	}

	redAI, err := engine.NewPlayer(red.Level)
	if err != nil {
		return xiangqi.Ongoing, 0, err
	}
	blackAI, err := engine.NewPlayer(black.Level)
	if err != nil {
		return xiangqi.Ongoing, 0, err
	}

	for ply := 0; ply < cfg.MaxMoves; ply++ {
		if err := ctx.Err(); err != nil {
			return xiangqi.Ongoing, ply, err
		}
		if r := board.GameResult(side); r != xiangqi.Ongoing {
			return r, ply, nil
		}

		ai := redAI
		if side == xiangqi.Black {
			ai = blackAI
		}
		res := ai.ChooseMove(board, side, cfg.MoveTime)
		if !res.Found {
			return board.GameResult(side), ply, nil
		}
		if _, err := board.ApplyMove(res.BestMove); err != nil {
			return xiangqi.Ongoing, ply, errors.Wrapf(err, "apply %v", res.BestMove)
		}
		side = side.Opponent()
	}
	return xiangqi.Draw, cfg.MaxMoves, nil
}

func printSummary(cfg matchConfig, sum matchSummary) {
	fmt.Printf("\n=== Final Score (%d games) ===\n", len(sum.Outcomes))
	fmt.Printf("%s: %d\n", cfg.Red.Name, sum.AWins)
	fmt.Printf("%s: %d\n", cfg.Black.Name, sum.BWins)
	fmt.Printf("Draws: %d\n", sum.Draws)
}
