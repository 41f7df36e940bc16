package engine

import "xiangqi/internal/xiangqi"

// 被兵卒顶住时必须先处理的大子
func soldierBait(pt xiangqi.PieceType) bool {
	return pt == xiangqi.PieceRook || pt == xiangqi.PieceHorse || pt == xiangqi.PieceCannon
}

// soldierThreatMateDepth 任一方有这么短的连将杀时不做强制过滤
const soldierThreatMateDepth = 3

// FilterSoldierThreatMoves 本方车马炮被对方兵卒一步可吃时，只留下处理它的走法：
// 优先挪到兵卒吃不到的地方，或者直接吃掉顶上来的兵卒；都没有就只留挪开它的走法。
// 任一方被将军、或任一方有短连将杀时原样返回，交给战术处理。
func FilterSoldierThreatMoves(b *xiangqi.Board, side xiangqi.Side, moves []xiangqi.Move) []xiangqi.Move {
	if len(moves) <= 1 {
		return moves
	}
	opp := side.Opponent()
	if b.IsInCheck(side) || b.IsInCheck(opp) {
		return moves
	}

	threatened, attackers := soldierThreats(b, opp)
	if len(threatened) == 0 {
		return moves
	}
	if FindCheckMate(b, side, soldierThreatMateDepth).Found || FindCheckMate(b, opp, soldierThreatMateDepth).Found {
		return moves
	}

	var safe, moved []xiangqi.Move
	for _, m := range moves {
		if attackers[m.To] {
			safe = append(safe, m)
			continue
		}
		if !threatened[m.From] {
			continue
		}
		moved = append(moved, m)
		exposed := false
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			exposed = soldierCanTake(b, opp, m.To)
		})
		if !exposed {
			safe = append(safe, m)
		}
	}
	switch {
	case len(safe) > 0:
		return safe
	case len(moved) > 0:
		return moved
	}
	return moves
}

// soldierThreats by 方兵卒一步能合法吃到的对方车马炮，以及这些兵卒所在的格子
func soldierThreats(b *xiangqi.Board, by xiangqi.Side) (targets, attackers map[xiangqi.Square]bool) {
	targets = make(map[xiangqi.Square]bool, 4)
	attackers = make(map[xiangqi.Square]bool, 4)
	for _, m := range b.GeneratePseudoMoves(by) {
		if m.Piece == nil || m.Piece.Type != xiangqi.PieceSoldier {
			continue
		}
		if m.Captured == nil || !soldierBait(m.Captured.Type) || !b.IsLegalMove(m, by) {
			continue
		}
		targets[m.To] = true
		attackers[m.From] = true
	}
	return targets, attackers
}

func soldierCanTake(b *xiangqi.Board, by xiangqi.Side, sq xiangqi.Square) bool {
	for _, m := range b.GeneratePseudoMoves(by) {
		if m.To == sq && m.Piece != nil && m.Piece.Type == xiangqi.PieceSoldier && b.IsLegalMove(m, by) {
			return true
		}
	}
	return false
}
