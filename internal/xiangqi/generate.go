package xiangqi

var (
	rookDirs     = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirs = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// 马的 8 种“日”字：终点 + 马腿
var horseLegMoves = [8]struct {
	Dr, Dc int // 终点
	Br, Bc int // 马腿
}{
	{-2, -1, -1, 0},
	{-2, +1, -1, 0},
	{-1, -2, 0, -1},
	{-1, +2, 0, +1},
	{+1, -2, 0, -1},
	{+1, +2, 0, +1},
	{+2, -1, +1, 0},
	{+2, +1, +1, 0},
}

// PseudoLegalMoves 按棋子种类追加 from 处的几何走法，不检查送将。
// from 上没有 side 的 kind 时也照样按几何规则生成，Move.Piece 为 nil。
func PseudoLegalMoves(b *Board, kind PieceType, side Side, from Square, moves *[]Move) {
	switch kind {
	case PieceGeneral:
		genGeneralMoves(b, side, from, moves)
	case PieceAdvisor:
		genAdvisorMoves(b, side, from, moves)
	case PieceElephant:
		genElephantMoves(b, side, from, moves)
	case PieceHorse:
		genHorseMoves(b, side, from, moves)
	case PieceRook:
		genRookMoves(b, side, from, moves)
	case PieceCannon:
		genCannonMoves(b, side, from, moves)
	case PieceSoldier:
		genSoldierMoves(b, side, from, moves)
	case PieceNone:
	}
}

// GeneratePseudoMoves side 全部棋子的伪合法走法
func (b *Board) GeneratePseudoMoves(side Side) []Move {
	moves := make([]Move, 0, 64)
	for _, p := range b.Pieces(side) {
		PseudoLegalMoves(b, p.Type, p.Side, p.Sq, &moves)
	}
	return moves
}

// PieceMoves 单个棋子的伪合法走法
func (b *Board) PieceMoves(p *Piece) []Move {
	moves := make([]Move, 0, 17)
	PseudoLegalMoves(b, p.Type, p.Side, p.Sq, &moves)
	return moves
}

// addStep 目标为空或敌子时追加一步，返回目标上是否有子
func addStep(b *Board, side Side, from Square, r, c int, moves *[]Move) bool {
	dst := b.grid[r][c]
	if dst == nil || dst.Side != side {
		*moves = append(*moves, Move{
			From:     from,
			To:       Sq(r, c),
			Piece:    b.grid[from.Row][from.Col],
			Captured: dst,
		})
	}
	return dst != nil
}

// 帅：九宫内直走一步
func genGeneralMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, d := range rookDirs {
		r, c := row+d[0], col+d[1]
		if inPalace(side, r, c) {
			addStep(b, side, from, r, c, moves)
		}
	}
}

// 仕：九宫内斜走一步
func genAdvisorMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, d := range diagonalDirs {
		r, c := row+d[0], col+d[1]
		if inPalace(side, r, c) {
			addStep(b, side, from, r, c, moves)
		}
	}
}

// 相：田字，塞象眼不能走，不过河
func genElephantMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, d := range diagonalDirs {
		r, c := row+2*d[0], col+2*d[1]
		if !onBoard(r, c) || !OwnHalf(side, r) {
			continue
		}
		if b.grid[row+d[0]][col+d[1]] != nil {
			continue
		}
		addStep(b, side, from, r, c, moves)
	}
}

// 马：日字，憋马腿不能走
func genHorseMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, m := range horseLegMoves {
		r, c := row+m.Dr, col+m.Dc
		if !onBoard(r, c) {
			continue
		}
		if b.grid[row+m.Br][col+m.Bc] != nil {
			continue // 憋马腿
		}
		addStep(b, side, from, r, c, moves)
	}
}

// 车：横竖随便走，吃遇到的第一个敌子
func genRookMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, d := range rookDirs {
		for r, c := row+d[0], col+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
			if addStep(b, side, from, r, c, moves) {
				break
			}
		}
	}
}

// 炮：不吃子时同车，吃子必须隔一个炮架
func genCannonMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	for _, d := range rookDirs {
		r, c := row+d[0], col+d[1]

		// 走子阶段：直到第一个棋子
		for ; onBoard(r, c); r, c = r+d[0], c+d[1] {
			if b.grid[r][c] != nil {
				break
			}
			*moves = append(*moves, Move{From: from, To: Sq(r, c), Piece: b.grid[row][col]})
		}

		// 吃子阶段：越过炮架，遇到的第一子若是敌子可吃
		for r, c = r+d[0], c+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
			dst := b.grid[r][c]
			if dst == nil {
				continue
			}
			if dst.Side != side {
				*moves = append(*moves, Move{From: from, To: Sq(r, c), Piece: b.grid[row][col], Captured: dst})
			}
			break
		}
	}
}

// 兵：过河前只能前进，过河后可以左右，永不后退
func genSoldierMoves(b *Board, side Side, from Square, moves *[]Move) {
	row, col := int(from.Row), int(from.Col)
	if r := row + pawnDir(side); onBoard(r, col) {
		addStep(b, side, from, r, col, moves)
	}
	if OwnHalf(side, row) {
		return
	}
	for _, dc := range [2]int{-1, +1} {
		if c := col + dc; onBoard(row, c) {
			addStep(b, side, from, row, c, moves)
		}
	}
}
