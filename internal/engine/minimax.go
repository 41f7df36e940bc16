package engine

import (
	"time"

	"xiangqi/internal/xiangqi"
)

// minimaxPlayer 固定深度、不剪枝的极大极小。超时后剩下的节点直接取静态分。
type minimaxPlayer struct {
	cfg  LevelConfig
	eval *Evaluator

	nodes    int64
	deadline time.Time
}

func (p *minimaxPlayer) Name() string { return p.cfg.Name }
func (p *minimaxPlayer) Level() Level { return p.cfg.Level }

func (p *minimaxPlayer) ChooseMove(b *xiangqi.Board, side xiangqi.Side, limit time.Duration) SearchResult {
	start := time.Now()
	p.nodes = 0
	p.deadline = time.Time{}
	if limit <= 0 {
		limit = p.cfg.TimeLimit()
	}
	if limit > 0 {
		p.deadline = start.Add(limit)
	}
	depth := p.cfg.Depth
	if depth <= 0 {
		depth = 3
	}

	board := b.Copy()
	moves := board.LegalMoves(side)
	if len(moves) == 0 {
		return SearchResult{TimeUsed: time.Since(start)}
	}

	sign := sideSign(side)
	scored := make([]Candidate, len(moves))
	for i, m := range moves {
		score := 0
		_ = board.Scoped(m, func(*xiangqi.Piece) {
			score = sign * p.minimax(board, side.Opponent(), depth-1, 1)
		})
		scored[i] = Candidate{Move: m, Score: score}
	}
	sortCandidates(scored)

	out := make([]Candidate, 0, maxCandidates)
	for _, c := range scored[:min(maxCandidates, len(scored))] {
		out = append(out, Candidate{Move: c.Move, Score: sign * c.Score})
	}
	return SearchResult{
		BestMove:   scored[0].Move,
		Found:      true,
		Score:      sign * scored[0].Score,
		Depth:      depth,
		Nodes:      p.nodes,
		TimeUsed:   time.Since(start),
		Candidates: out,
		PV:         []xiangqi.Move{scored[0].Move},
	}
}

// minimax 红方视角
func (p *minimaxPlayer) minimax(b *xiangqi.Board, side xiangqi.Side, depth, ply int) int {
	p.nodes++
	if depth <= 0 || (!p.deadline.IsZero() && time.Now().After(p.deadline)) {
		return p.eval.Evaluate(b)
	}
	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		if b.IsInCheck(side) {
			return -sideSign(side) * (mateScore - ply)
		}
		return 0
	}

	best := -scoreInf
	if side == xiangqi.Black {
		best = scoreInf
	}
	for _, m := range moves {
		score := 0
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			score = p.minimax(b, side.Opponent(), depth-1, ply+1)
		})
		if side == xiangqi.Red {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}
