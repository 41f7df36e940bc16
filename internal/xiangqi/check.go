package xiangqi

// IsAttacked 判断站在 sq 上的对方棋子能否被 bySide 吃到。
// 从目标格反向找攻击者：车/帅看直线第一子，炮看隔一子，马看反向马腿，兵看前方和两侧。
// 对有子的格子，它和“枚举 bySide 全部伪合法走法看能否走到 sq”等价（外加对面笑），但快得多。
// 空格上的结果只对吃子有意义：炮、兵走到空格不算攻击。
func (b *Board) IsAttacked(sq Square, bySide Side) bool {
	row, col := int(sq.Row), int(sq.Col)
	target := b.grid[row][col]

	// 直线：车、帅（含对面笑）、炮
	for _, d := range rookDirs {
		r, c := row+d[0], col+d[1]
		for ; onBoard(r, c); r, c = r+d[0], c+d[1] {
			if b.grid[r][c] != nil {
				break
			}
		}
		if !onBoard(r, c) {
			continue
		}
		if p := b.grid[r][c]; p.Side == bySide {
			switch p.Type {
			case PieceRook:
				return true
			case PieceGeneral:
				if abs(r-row)+abs(c-col) == 1 && inPalace(bySide, row, col) {
					return true
				}
				// 对面笑
				if d[1] == 0 && target != nil && target.Type == PieceGeneral {
					return true
				}
			}
		}
		for r, c = r+d[0], c+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
			p := b.grid[r][c]
			if p == nil {
				continue
			}
			if p.Side == bySide && p.Type == PieceCannon {
				return true
			}
			break
		}
	}

	// 马：马在 sq - 终点偏移，马腿在马的位置 + 腿偏移
	for _, m := range horseLegMoves {
		hr, hc := row-m.Dr, col-m.Dc
		if !onBoard(hr, hc) {
			continue
		}
		p := b.grid[hr][hc]
		if p == nil || p.Side != bySide || p.Type != PieceHorse {
			continue
		}
		if b.grid[hr+m.Br][hc+m.Bc] == nil {
			return true
		}
	}

	// 兵：从正后方前进一步，或者过河后横走一步
	if r := row - pawnDir(bySide); onBoard(r, col) {
		if p := b.grid[r][col]; p != nil && p.Side == bySide && p.Type == PieceSoldier {
			return true
		}
	}
	if !OwnHalf(bySide, row) {
		for _, dc := range [2]int{-1, +1} {
			if c := col + dc; onBoard(row, c) {
				if p := b.grid[row][c]; p != nil && p.Side == bySide && p.Type == PieceSoldier {
					return true
				}
			}
		}
	}

	// 仕、相只守本方九宫 / 半场
	if inPalace(bySide, row, col) {
		for _, d := range diagonalDirs {
			r, c := row+d[0], col+d[1]
			if !inPalace(bySide, r, c) {
				continue
			}
			if p := b.grid[r][c]; p != nil && p.Side == bySide && p.Type == PieceAdvisor {
				return true
			}
		}
	}
	if OwnHalf(bySide, row) {
		for _, d := range diagonalDirs {
			r, c := row+2*d[0], col+2*d[1]
			if !onBoard(r, c) || b.grid[row+d[0]][col+d[1]] != nil {
				continue
			}
			if p := b.grid[r][c]; p != nil && p.Side == bySide && p.Type == PieceElephant {
				return true
			}
		}
	}
	return false
}

// GeneralsFacing 两帅同列且中间无子
func (b *Board) GeneralsFacing() bool {
	red, black := b.FindGeneral(Red), b.FindGeneral(Black)
	if red == nil || black == nil || red.Sq.Col != black.Sq.Col {
		return false
	}
	col := int(red.Sq.Col)
	lo, hi := int(black.Sq.Row), int(red.Sq.Row)
	if lo > hi {
		lo, hi = hi, lo
	}
	for r := lo + 1; r < hi; r++ {
		if b.grid[r][col] != nil {
			return false
		}
	}
	return true
}

// IsInCheck side 的帅是否被将军（含对面笑）。没有帅时返回 false。
func (b *Board) IsInCheck(side Side) bool {
	g := b.FindGeneral(side)
	if g == nil {
		return false
	}
	return b.IsAttacked(g.Sq, side.Opponent())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
