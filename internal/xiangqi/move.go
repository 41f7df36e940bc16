package xiangqi

// ApplyMove 走一步，返回被吃的子（没有则为 nil）。
// 总是按 m.From 在本棋盘上重新取子，不信任 m.Piece：走法可能来自另一块棋盘的拷贝。
func (b *Board) ApplyMove(m Move) (*Piece, error) {
	if !m.From.OnBoard() || !m.To.OnBoard() {
		return nil, ErrOffBoard
	}
	p := b.grid[m.From.Row][m.From.Col]
	if p == nil {
		return nil, ErrEmptySource
	}
	captured := b.grid[m.To.Row][m.To.Col]
	if captured != nil && captured.Side == p.Side {
		return nil, ErrOccupied
	}

	b.hash ^= pieceHashKey(p.Type, p.Side, m.From)
	if captured != nil {
		b.hash ^= pieceHashKey(captured.Type, captured.Side, m.To)
		b.remove(captured)
	}
	b.grid[m.From.Row][m.From.Col] = nil
	b.grid[m.To.Row][m.To.Col] = p
	p.Sq = m.To
	b.hash ^= pieceHashKey(p.Type, p.Side, m.To)
	return captured, nil
}

// UndoMove ApplyMove 的逆操作，必须按后进先出的顺序调用。
func (b *Board) UndoMove(m Move, captured *Piece) error {
	if !m.From.OnBoard() || !m.To.OnBoard() {
		return ErrOffBoard
	}
	p := b.grid[m.To.Row][m.To.Col]
	if p == nil {
		return ErrEmptyTarget
	}

	b.hash ^= pieceHashKey(p.Type, p.Side, m.To)
	b.grid[m.To.Row][m.To.Col] = nil
	p.Sq = m.From
	b.grid[m.From.Row][m.From.Col] = p
	b.hash ^= pieceHashKey(p.Type, p.Side, m.From)
	if captured != nil {
		captured.Sq = m.To
		b.restore(captured)
		b.hash ^= pieceHashKey(captured.Type, captured.Side, m.To)
	}
	return nil
}

// Scoped 走 m、执行 fn、再撤销。fn 里无论从哪条路径返回，撤销都会发生。
func (b *Board) Scoped(m Move, fn func(captured *Piece)) error {
	captured, err := b.ApplyMove(m)
	if err != nil {
		return err
	}
	defer b.UndoMove(m, captured)
	fn(captured)
	return nil
}
