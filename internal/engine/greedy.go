package engine

import (
	"time"

	"xiangqi/internal/xiangqi"
)

// greedyPlayer 只看一步：吃子分 + 走完之后的局面分
type greedyPlayer struct {
	cfg  LevelConfig
	eval *Evaluator
}

func (p *greedyPlayer) Name() string { return p.cfg.Name }
func (p *greedyPlayer) Level() Level { return p.cfg.Level }

func (p *greedyPlayer) ChooseMove(b *xiangqi.Board, side xiangqi.Side, _ time.Duration) SearchResult {
	start := time.Now()
	board := b.Copy()
	moves := board.LegalMoves(side)
	if len(moves) == 0 {
		return SearchResult{TimeUsed: time.Since(start)}
	}
	// 只看一步看不到对方下一手的吃子，先把顶兵和白送子的走法过滤掉
	moves = FilterSoldierThreatMoves(board, side, moves)
	moves = FilterHangingMoves(board, moves)

	sign := sideSign(side)
	scored := make([]Candidate, len(moves))
	for i, m := range moves {
		score := 0
		if m.Captured != nil {
			score += PieceValue(m.Captured.Type) * 10
		}
		_ = board.Scoped(m, func(*xiangqi.Piece) {
			score += sign * p.eval.Evaluate(board)
		})
		scored[i] = Candidate{Move: m, Score: score}
	}
	sortCandidates(scored)

	return SearchResult{
		BestMove:   scored[0].Move,
		Found:      true,
		Score:      sign * scored[0].Score,
		Depth:      1,
		Nodes:      int64(len(moves)),
		TimeUsed:   time.Since(start),
		Candidates: scored[:min(maxCandidates, len(scored))],
		PV:         []xiangqi.Move{scored[0].Move},
	}
}
