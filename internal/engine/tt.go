package engine

import "xiangqi/internal/xiangqi"

type boundType uint8

const (
	boundExact boundType = iota
	boundLower           // 分数 >= score（beta 截断）
	boundUpper           // 分数 <= score（没超过 alpha）
)

// 置换表条目。fingerprint 是局面的二次校验，key 撞车但局面不同的条目直接当作未命中。
type ttEntry struct {
	Fingerprint uint32
	Depth       int
	Score       int
	Bound       boundType
	Move        xiangqi.MoveKey
}

const ttMaxEntries = 1 << 20

type transTable struct {
	m map[uint64]ttEntry
}

func newTransTable() *transTable {
	return &transTable{m: make(map[uint64]ttEntry, 1<<16)}
}

func (t *transTable) clear() {
	clear(t.m)
}

func (t *transTable) probe(key uint64, fp uint32) (ttEntry, bool) {
	e, ok := t.m[key]
	if !ok || e.Fingerprint != fp {
		return ttEntry{}, false
	}
	return e, true
}

// store 同一 key 上更深的结果覆盖更浅的；指纹不同（撞车）时新条目直接覆盖
func (t *transTable) store(key uint64, e ttEntry) {
	if len(t.m) >= ttMaxEntries {
		clear(t.m)
	}
	old, ok := t.m[key]
	if !ok || old.Fingerprint != e.Fingerprint || e.Depth >= old.Depth {
		t.m[key] = e
	}
}

func (t *transTable) size() int { return len(t.m) }

// 置换表按“局面 + 行棋方”索引
func ttKey(b *xiangqi.Board, side xiangqi.Side) uint64 {
	return b.Hash() ^ xiangqi.SideKey(side)
}

// boardFingerprint 双方子数和两个帅的位置，和哈希相互独立
func boardFingerprint(b *xiangqi.Board) uint32 {
	fp := uint32(len(b.Pieces(xiangqi.Red)))<<26 | uint32(len(b.Pieces(xiangqi.Black)))<<20
	if g := b.FindGeneral(xiangqi.Red); g != nil {
		fp |= uint32(g.Sq.Index()+1) << 10
	}
	if g := b.FindGeneral(xiangqi.Black); g != nil {
		fp |= uint32(g.Sq.Index() + 1)
	}
	return fp
}

// 杀棋分存成相对当前节点的距离，取出时再换回相对根节点
func scoreToTT(score, ply int) int {
	switch {
	case score > mateBound:
		return score + ply
	case score < -mateBound:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score > mateBound:
		return score - ply
	case score < -mateBound:
		return score + ply
	}
	return score
}
