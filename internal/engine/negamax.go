package engine

import "xiangqi/internal/xiangqi"

const (
	nullMoveMinDepth = 3
	nullMoveDepthCut = 3 // 空着后少搜 3 层（R=2 再减去本层）
	lmrMinMoveIndex  = 4
	lmrDeepIndex     = 10
	lmrMinDepth      = 3
)

// negamax 行棋方视角的 alpha-beta。超时后直接返回 0，由外层丢弃这一层。
func (e *Engine) negamax(b *xiangqi.Board, side xiangqi.Side, depth, alpha, beta, ply int, allowNull bool) int {
	if e.timeUp() {
		return 0
	}
	if depth <= 0 {
		return e.quiesce(b, side, alpha, beta, ply, e.cfg.QuiescenceDepth)
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
	inCheck := b.IsInCheck(side)
	if len(moves) == 0 {
		if inCheck {
			return -(mateScore - ply)
		}
		return 0 // 无子可动按和棋
	}

	// 空着裁剪：让对方连走两步仍然 >= beta，就认为这里也会截断
	if allowNull && !inCheck && depth >= nullMoveMinDepth {
		score := -e.negamax(b, side.Opponent(), depth-nullMoveDepthCut, -beta, -beta+1, ply+1, false)
		if e.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	alphaOrig := alpha
	best := -scoreInf
	var bestMove xiangqi.Move
	for i, m := range e.orderMoves(b, side, moves, depth, ttMove) {
		quiet := !m.IsCapture() && !m.check

		reduction := 0
		if i >= lmrMinMoveIndex && depth >= lmrMinDepth && quiet && !inCheck {
			reduction = 1
			if i >= lmrDeepIndex {
				reduction = 2
			}
		}

		score := e.searchChild(b, m.Move, side, depth-1-reduction, alpha, beta, ply+1)
		if reduction > 0 && score > alpha && !e.stopped {
			score = e.searchChild(b, m.Move, side, depth-1, alpha, beta, ply+1)
		}
		if e.stopped {
			return 0
		}

		if score > best {
			best = score
			bestMove = m.Move
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			e.recordCutoff(m.Move, depth)
			break
		}
	}

	bound := boundExact
	switch {
	case best <= alphaOrig:
		bound = boundUpper
	case best >= beta:
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

// quiesce 只展开吃子和将军，结果不低于站着不动的静态分
func (e *Engine) quiesce(b *xiangqi.Board, side xiangqi.Side, alpha, beta, ply, qdepth int) int {
	if e.timeUp() {
		return 0
	}
	e.nodes++

	standPat := sideSign(side) * e.eval.Evaluate(b)
	if qdepth <= 0 || standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	best := standPat
	for _, m := range tacticalMoves(b, side) {
		score := best
		_ = b.Scoped(m.Move, func(*xiangqi.Piece) {
			score = -e.quiesce(b, side.Opponent(), -beta, -alpha, ply+1, qdepth-1)
		})
		if e.stopped {
			return 0
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}
