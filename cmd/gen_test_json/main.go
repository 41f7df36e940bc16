package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/xiangqi"
)

// TestCase 随机对局中的一个局面，给前端和其他实现对拍走法生成用
type TestCase struct {
	FEN     string   `json:"fen"`
	InCheck bool     `json:"in_check"`
	Result  string   `json:"result"`
	Stage   int      `json:"stage"`          // 0: 能选哪些子；1: 选中 from 之后能走哪些格
	From    *[2]int  `json:"from,omitempty"` // 只在 stage 1 有
	Mask    [][2]int `json:"mask"`
	Moves   []string `json:"moves,omitempty"` // 只在 stage 0 有，中文记谱
}

func pair(sq xiangqi.Square) [2]int { return [2]int{int(sq.Row), int(sq.Col)} }

func main() {
	numGames := flag.Int("games", 10, "number of random games")
	maxMoves := flag.Int("maxmoves", 500, "plies per game cap")
	seed := flag.Int64("seed", 1, "random seed")
	out := flag.String("out", "move_gen_test_data.json", "output file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	rng := rand.New(rand.NewSource(*seed))

	var testCases []TestCase
	for g := 0; g < *numGames; g++ {
		b, side := xiangqi.NewInitialBoard(), xiangqi.Red
		for ply := 0; ply < *maxMoves; ply++ {
			legal := b.LegalMoves(side)
			fen := xiangqi.EncodeFEN(b, side)
			result := b.GameResult(side)

			// --- Stage 0: 可以选的子 ---
			froms := make(map[xiangqi.Square]bool)
			stage0 := TestCase{FEN: fen, InCheck: b.IsInCheck(side), Result: result.String(), Mask: [][2]int{}}
			for _, m := range legal {
				if !froms[m.From] {
					froms[m.From] = true
					stage0.Mask = append(stage0.Mask, pair(m.From))
				}
				stage0.Moves = append(stage0.Moves, xiangqi.Notation(b, m))
			}
			testCases = append(testCases, stage0)
			if result != xiangqi.Ongoing {
				break
			}

			chosen := legal[rng.Intn(len(legal))]

			// --- Stage 1: 选中子之后的落点 ---
			from := pair(chosen.From)
			stage1 := TestCase{FEN: fen, InCheck: stage0.InCheck, Result: stage0.Result, Stage: 1, From: &from, Mask: [][2]int{}}
			for _, m := range b.LegalMovesFrom(chosen.From, side) {
				stage1.Mask = append(stage1.Mask, pair(m.To))
			}
			testCases = append(testCases, stage1)

			if _, err := b.ApplyMove(chosen); err != nil {
				log.Fatal().Err(err).Str("fen", fen).Msg("apply move")
			}
			side = side.Opponent()
		}
	}

	data, err := json.MarshalIndent(testCases, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal")
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	fmt.Printf("Generated %d test cases from %d random games to %s\n", len(testCases), *numGames, *out)
}
