package xiangqi

// Result 对局结果
type Result int8

const (
	Ongoing Result = iota
	RedWin
	BlackWin
	Draw
)

func (r Result) String() string {
	switch r {
	case RedWin:
		return "red_win"
	case BlackWin:
		return "black_win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Decisive 是否分出胜负
func (r Result) Decisive() bool { return r == RedWin || r == BlackWin }

// WinFor side 获胜对应的结果
func WinFor(side Side) Result {
	if side == Red {
		return RedWin
	}
	return BlackWin
}

// IsLegalMove 原地走一步、看自己的帅是否被将、再撤销。
func (b *Board) IsLegalMove(m Move, side Side) bool {
	legal := false
	err := b.Scoped(m, func(*Piece) {
		legal = !b.IsInCheck(side)
	})
	return err == nil && legal
}

// LegalMoves side 的全部合法走法
func (b *Board) LegalMoves(side Side) []Move {
	pseudo := b.GeneratePseudoMoves(side)
	legal := pseudo[:0]
	for _, m := range pseudo {
		if b.IsLegalMove(m, side) {
			legal = append(legal, m)
		}
	}
	return legal
}

// LegalMovesFrom 某一格棋子的合法走法，格上没有 side 的子时返回空
func (b *Board) LegalMovesFrom(sq Square, side Side) []Move {
	p := b.PieceAt(sq)
	if p == nil || p.Side != side {
		return nil
	}
	var legal []Move
	for _, m := range b.PieceMoves(p) {
		if b.IsLegalMove(m, side) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMove 找到一个合法走法就返回，比 len(LegalMoves) > 0 省
func (b *Board) HasLegalMove(side Side) bool {
	moves := make([]Move, 0, 17)
	// Scoped 只动对方的列表，本方列表按下标遍历不受影响
	for i := 0; i < len(b.pieces[side]); i++ {
		p := b.pieces[side][i]
		moves = moves[:0]
		PseudoLegalMoves(b, p.Type, p.Side, p.Sq, &moves)
		for _, m := range moves {
			if b.IsLegalMove(m, side) {
				return true
			}
		}
	}
	return false
}

// FindLegalMove 在 side 的合法走法里按坐标查找，带上本棋盘的棋子引用
func (b *Board) FindLegalMove(side Side, from, to Square) (Move, bool) {
	for _, m := range b.LegalMovesFrom(from, side) {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}

func (b *Board) IsCheckmate(side Side) bool {
	return b.IsInCheck(side) && !b.HasLegalMove(side)
}

// IsStalemate 无子可动但没被将军，按和棋处理
func (b *Board) IsStalemate(side Side) bool {
	return !b.IsInCheck(side) && !b.HasLegalMove(side)
}

// GivesCheck 走完 m 之后对方是否被将军
func (b *Board) GivesCheck(m Move) bool {
	p := b.PieceAt(m.From)
	if p == nil {
		return false
	}
	side := p.Side
	check := false
	_ = b.Scoped(m, func(*Piece) {
		check = b.IsInCheck(side.Opponent())
	})
	return check
}

// OnlyGenerals 双方都只剩光杆帅
func (b *Board) OnlyGenerals() bool {
	return len(b.pieces[Red]) == 1 && len(b.pieces[Black]) == 1 &&
		b.pieces[Red][0].Type == PieceGeneral && b.pieces[Black][0].Type == PieceGeneral
}

// GameResult 轮到 sideToMove 走时的结果。
// 无子可动且未被将军判和（有的规则集判负）。
func (b *Board) GameResult(sideToMove Side) Result {
	if b.FindGeneral(sideToMove) == nil {
		return WinFor(sideToMove.Opponent())
	}
	if !b.HasLegalMove(sideToMove) {
		if b.IsInCheck(sideToMove) {
			return WinFor(sideToMove.Opponent())
		}
		return Draw
	}
	if b.OnlyGenerals() {
		return Draw
	}
	return Ongoing
}

// Perft 合法走法树的叶子数
func (b *Board) Perft(side Side, depth int) int64 {
	if depth <= 0 {
		return 1
	}
	moves := b.LegalMoves(side)
	if depth == 1 {
		return int64(len(moves))
	}
	var n int64
	for _, m := range moves {
		_ = b.Scoped(m, func(*Piece) {
			n += b.Perft(side.Opponent(), depth-1)
		})
	}
	return n
}
