package xiangqi

import "sync"

var (
	zobristOnce sync.Once

	// 进程内只生成一次，所有棋盘（包括 Copy 出来的）共用
	zobristPieces [2][NumPieceTypes][NumSquares]uint64
	zobristSide   uint64
)

func initZobrist() {
	zobristOnce.Do(func() {
		seed := uint64(0x9E3779B97F4A7C15)
		next := func() uint64 {
			seed += 0x9E3779B97F4A7C15
			z := seed
			z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
			z = (z ^ (z >> 27)) * 0x94D049BB133111EB
			return z ^ (z >> 31)
		}

		for side := 0; side < 2; side++ {
			for pt := 1; pt < NumPieceTypes; pt++ {
				for sq := 0; sq < NumSquares; sq++ {
					zobristPieces[side][pt][sq] = next()
				}
			}
		}
		zobristSide = next()
	})
}

func pieceHashKey(pt PieceType, side Side, sq Square) uint64 {
	if (side != Red && side != Black) || pt <= PieceNone || pt >= NumPieceTypes {
		return 0
	}
	return zobristPieces[side][pt][sq.Index()]
}

// SideKey 棋盘哈希本身不含行棋方，置换表需要时自己异或上这个值。
func SideKey(side Side) uint64 {
	initZobrist()
	if side == Black {
		return zobristSide
	}
	return 0
}

// ComputeHash 扫描全盘重新计算哈希，应当始终等于 Hash()
func (b *Board) ComputeHash() uint64 {
	initZobrist()

	var h uint64
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if p := b.grid[r][c]; p != nil {
				h ^= pieceHashKey(p.Type, p.Side, Sq(r, c))
			}
		}
	}
	return h
}
