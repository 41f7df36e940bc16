package engine

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

// 排序权重，只决定搜索顺序，不过滤任何走法
const (
	orderPV         = 1_000_000
	orderMate       = 500_000
	orderKiller     = 90_000
	orderCheck      = 50_000
	orderHistoryCap = orderKiller - 1
	orderNearKing   = 10_000
	orderAdvance    = 100
	orderCenter     = 50
)

type scoredMove struct {
	xiangqi.Move
	score int
	check bool // 走完是否将军
}

// orderMoves 给走法打分并按分数从高到低稳定排序
func (e *Engine) orderMoves(b *xiangqi.Board, side xiangqi.Side, moves []xiangqi.Move, depth int, pv xiangqi.MoveKey) []scoredMove {
	out := make([]scoredMove, len(moves))
	opp := side.Opponent()
	enemyGeneral := b.FindGeneral(opp)
	killers := e.killerSlot(depth)

	for i, m := range moves {
		sm := scoredMove{Move: m}
		key := m.Key()
		if !pv.IsZero() && key == pv {
			sm.score += orderPV
		}

		mate := false
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			sm.check = b.IsInCheck(opp)
			mate = sm.check && !b.HasLegalMove(opp)
		})
		switch {
		case mate:
			sm.score += orderMate
		case sm.check:
			sm.score += orderCheck
		}

		if key == killers[0] || key == killers[1] {
			sm.score += orderKiller
		}
		if m.Piece != nil {
			sm.score += clamp(e.history[m.Piece.Type][m.From.Index()][m.To.Index()], 0, orderHistoryCap)
			if m.Captured != nil {
				sm.score += PieceValue(m.Captured.Type)*100 - PieceValue(m.Piece.Type)
			}
		}
		if enemyGeneral != nil {
			if d := manhattan(m.To, enemyGeneral.Sq); d <= 2 {
				sm.score += orderNearKing - d*1000
			}
		}
		if !xiangqi.OwnHalf(side, int(m.To.Row)) {
			sm.score += orderAdvance
		}
		if m.To.Col >= 3 && m.To.Col <= 5 {
			sm.score += orderCenter
		}
		out[i] = sm
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// tacticalMoves 静态搜索用：吃子或将军，按 MVV-LVA 排序
func tacticalMoves(b *xiangqi.Board, side xiangqi.Side) []scoredMove {
	opp := side.Opponent()
	var out []scoredMove
	for _, m := range b.LegalMoves(side) {
		sm := scoredMove{Move: m}
		if m.Captured != nil {
			sm.score = PieceValue(m.Captured.Type)*100 - PieceValue(m.Piece.Type)
		}
		_ = b.Scoped(m, func(*xiangqi.Piece) { sm.check = b.IsInCheck(opp) })
		if m.Captured == nil && !sm.check {
			continue
		}
		if sm.check {
			sm.score += orderCheck
		}
		out = append(out, sm)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}
