package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

func main() {
	fen := flag.String("fen", "", "position to inspect (default: standard opening)")
	perft := flag.Int("perft", 0, "run perft divide to this depth")
	level := flag.String("level", "", "also ask this AI level for a move")
	moveTime := flag.Duration("movetime", 3*time.Second, "time limit for -level")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	b, side := xiangqi.NewInitialBoard(), xiangqi.Red
	if *fen != "" {
		var err error
		if b, side, err = xiangqi.DecodeFEN(*fen); err != nil {
			log.Fatal().Err(err).Msg("decode fen")
		}
	}

	fmt.Println(b)
	fmt.Println("FEN:   ", xiangqi.EncodeFEN(b, side))
	fmt.Println("To move:", side)
	fmt.Println("Result:", b.GameResult(side))
	fmt.Println("In check:", b.IsInCheck(side))
	fmt.Println("Pseudo legal moves:", len(b.GeneratePseudoMoves(side)))

	moves := b.LegalMoves(side)
	fmt.Println("Legal moves:", len(moves))
	for _, m := range moves {
		fmt.Printf("  %-8s %s\n", xiangqi.Notation(b, m), m)
	}

	ev := engine.NewEvaluator(false)
	rich := engine.NewEvaluator(true)
	fmt.Printf("Eval: basic %d, rich %d\n", ev.Evaluate(b), rich.Evaluate(b))

	if *perft > 0 {
		perftDivide(b, side, *perft)
	}

	if *level != "" {
		cfg, err := engine.FindLevel(engine.DefaultLevels(), engine.Level(*level))
		if err != nil {
			log.Fatal().Err(err).Msg("level")
		}
		p, err := engine.NewPlayer(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("player")
		}
		res := p.ChooseMove(b, side, *moveTime)
		if !res.Found {
			fmt.Println("AI: no move")
			return
		}
		fmt.Printf("AI %s: %s (%s) score %d depth %d nodes %d in %v\n",
			cfg.Name, xiangqi.Notation(b, res.BestMove), res.BestMove, res.Score, res.Depth, res.Nodes, res.TimeUsed)
		for _, c := range res.Candidates {
			fmt.Printf("  %-8s %d\n", xiangqi.Notation(b, c.Move), c.Score)
		}
	}
}

// 每个根走法下面的叶子数，对照别的实现查走法生成的错
func perftDivide(b *xiangqi.Board, side xiangqi.Side, depth int) {
	start := time.Now()
	type row struct {
		move  string
		nodes int64
	}
	var rows []row
	var total int64
	for _, m := range b.LegalMoves(side) {
		var n int64
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			n = b.Perft(side.Opponent(), depth-1)
		})
		rows = append(rows, row{move: m.String(), nodes: n})
		total += n
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].move < rows[j].move })
	for _, r := range rows {
		fmt.Printf("%s: %d\n", r.move, r.nodes)
	}
	elapsed := time.Since(start)
	fmt.Printf("perft(%d) = %d in %v\n", depth, total, elapsed)
}
