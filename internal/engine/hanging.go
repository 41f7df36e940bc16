package engine

import "xiangqi/internal/xiangqi"

// IsHanging sq 上的子能否被对方合法地吃掉
func IsHanging(b *xiangqi.Board, sq xiangqi.Square) bool {
	p := b.PieceAt(sq)
	if p == nil {
		return false
	}
	opp := p.Side.Opponent()
	// 先用反向扫描快速排除，再逐个确认吃子是否合法
	if !b.IsAttacked(sq, opp) {
		return false
	}
	for _, m := range b.GeneratePseudoMoves(opp) {
		if m.To == sq && b.IsLegalMove(m, opp) {
			return true
		}
	}
	return false
}

// HangsPiece 走完 m 之后，走过去的子会不会被对方吃掉
func HangsPiece(b *xiangqi.Board, m xiangqi.Move) bool {
	hanging := false
	_ = b.Scoped(m, func(*xiangqi.Piece) {
		hanging = IsHanging(b, m.To)
	})
	return hanging
}

// FilterHangingMoves 去掉白白送子的走法（吃到的不比送掉的多）；全被去掉时原样返回
func FilterHangingMoves(b *xiangqi.Board, moves []xiangqi.Move) []xiangqi.Move {
	if len(moves) <= 1 {
		return moves
	}
	safe := make([]xiangqi.Move, 0, len(moves))
	for _, m := range moves {
		if m.Piece != nil && HangsPiece(b, m) {
			gain := 0
			if m.Captured != nil {
				gain = PieceValue(m.Captured.Type)
			}
			if gain < PieceValue(m.Piece.Type) {
				continue
			}
		}
		safe = append(safe, m)
	}
	if len(safe) == 0 {
		return moves
	}
	return safe
}
