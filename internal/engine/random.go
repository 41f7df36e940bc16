package engine

import (
	"math/rand"
	"time"

	"xiangqi/internal/xiangqi"
)

// randomPlayer 最低档：有吃就吃、尽量不丢子，其余随机
type randomPlayer struct {
	cfg LevelConfig
	rng *rand.Rand
}

// NewRandomPlayer seed 固定时走法可复现
func NewRandomPlayer(cfg LevelConfig, seed int64) Player {
	return &randomPlayer{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (p *randomPlayer) Name() string { return p.cfg.Name }
func (p *randomPlayer) Level() Level { return p.cfg.Level }

func (p *randomPlayer) ChooseMove(b *xiangqi.Board, side xiangqi.Side, _ time.Duration) SearchResult {
	start := time.Now()
	board := b.Copy()
	moves := board.LegalMoves(side)
	if len(moves) == 0 {
		return SearchResult{TimeUsed: time.Since(start)}
	}

	opp := side.Opponent()
	scored := make([]Candidate, len(moves))
	for i, m := range moves {
		score := 0
		if m.Captured != nil {
			score += PieceValue(m.Captured.Type) * 10
		}
		_ = board.Scoped(m, func(*xiangqi.Piece) {
			if IsHanging(board, m.To) {
				score -= PieceValue(m.Piece.Type) * 5
			}
			if board.IsInCheck(opp) {
				score += 300
			}
		})
		score += p.rng.Intn(21) - 10
		scored[i] = Candidate{Move: m, Score: score}
	}
	sortCandidates(scored)

	// 最高分里随机挑一个
	ties := 1
	for ties < len(scored) && scored[ties].Score == scored[0].Score {
		ties++
	}
	best := scored[p.rng.Intn(ties)]
	return SearchResult{
		BestMove:   best.Move,
		Found:      true,
		Score:      sideSign(side) * best.Score,
		Depth:      1,
		Nodes:      int64(len(moves)),
		TimeUsed:   time.Since(start),
		Candidates: scored[:min(maxCandidates, len(scored))],
		PV:         []xiangqi.Move{best.Move},
	}
}
