package engine

import "xiangqi/internal/xiangqi"

// alphaBeta 红方视角：红方走时取极大，黑方走时取极小。和 negamax 等价，只是写法不同。
func (e *Engine) alphaBeta(b *xiangqi.Board, side xiangqi.Side, depth, alpha, beta, ply int) int {
	if e.timeUp() {
		return 0
	}
	if depth <= 0 {
		return e.quiesceMinMax(b, side, alpha, beta, e.cfg.QuiescenceDepth)
	}
	e.nodes++

	key, fp := ttKey(b, side), boardFingerprint(b)
	var ttMove xiangqi.MoveKey
	if ent, ok := e.tt.probe(key, fp); ok {
		ttMove = ent.Move
		if ent.Depth >= depth {
			s := scoreFromTT(ent.Score, ply)
			switch {
			case ent.Bound == boundExact:
				return s
			case ent.Bound == boundLower && s >= beta:
				return s
			case ent.Bound == boundUpper && s <= alpha:
				return s
			}
		}
	}

	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		if b.IsInCheck(side) {
			return -sideSign(side) * (mateScore - ply)
		}
		return 0
	}

	alphaOrig, betaOrig := alpha, beta
	ordered := e.orderMoves(b, side, moves, depth, ttMove)
	var bestMove xiangqi.Move
	var best int

	if side == xiangqi.Red {
		best = -scoreInf
		for _, m := range ordered {
			score := best
			_ = b.Scoped(m.Move, func(*xiangqi.Piece) {
				score = e.alphaBeta(b, xiangqi.Black, depth-1, alpha, beta, ply+1)
			})
			if e.stopped {
				return 0
			}
			if score > best {
				best, bestMove = score, m.Move
			}
			alpha = max(alpha, score)
			if alpha >= beta {
				e.recordCutoff(m.Move, depth)
				break
			}
		}
	} else {
		best = scoreInf
		for _, m := range ordered {
			score := best
			_ = b.Scoped(m.Move, func(*xiangqi.Piece) {
				score = e.alphaBeta(b, xiangqi.Red, depth-1, alpha, beta, ply+1)
			})
			if e.stopped {
				return 0
			}
			if score < best {
				best, bestMove = score, m.Move
			}
			beta = min(beta, score)
			if alpha >= beta {
				e.recordCutoff(m.Move, depth)
				break
			}
		}
	}

	// 红方视角的上下界
	bound := boundExact
	switch {
	case best <= alphaOrig:
		bound = boundUpper
	case best >= betaOrig:
		bound = boundLower
	}
	e.tt.store(key, ttEntry{
		Fingerprint: fp,
		Depth:       depth,
		Score:       scoreToTT(best, ply),
		Bound:       bound,
		Move:        bestMove.Key(),
	})
	return best
}

// quiesceMinMax 红方视角的静态搜索
func (e *Engine) quiesceMinMax(b *xiangqi.Board, side xiangqi.Side, alpha, beta, qdepth int) int {
	if e.timeUp() {
		return 0
	}
	e.nodes++

	standPat := e.eval.Evaluate(b)
	if qdepth <= 0 {
		return standPat
	}
	best := standPat
	if side == xiangqi.Red {
		if standPat >= beta {
			return standPat
		}
		alpha = max(alpha, standPat)
	} else {
		if standPat <= alpha {
			return standPat
		}
		beta = min(beta, standPat)
	}

	for _, m := range tacticalMoves(b, side) {
		score := best
		_ = b.Scoped(m.Move, func(*xiangqi.Piece) {
			score = e.quiesceMinMax(b, side.Opponent(), alpha, beta, qdepth-1)
		})
		if e.stopped {
			return 0
		}
		if side == xiangqi.Red {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if alpha >= beta {
			break
		}
	}
	return best
}
