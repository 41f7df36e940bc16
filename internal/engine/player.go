package engine

import (
	"time"

	"github.com/pkg/errors"

	"xiangqi/internal/xiangqi"
)

// Level AI 难度
type Level string

const (
	LevelRandom    Level = "random"
	LevelGreedy    Level = "greedy"
	LevelMinimax   Level = "minimax"
	LevelAlphaBeta Level = "alphabeta"
	LevelMaster    Level = "master"
)

var ErrUnknownLevel = errors.New("unknown AI level")

// LevelConfig 一个难度档位
type LevelConfig struct {
	Level           Level   `json:"level"`
	Name            string  `json:"name"`
	Difficulty      int     `json:"difficulty"`
	Description     string  `json:"description"`
	Depth           int     `json:"depth,omitempty"`
	TimeLimitSec    float64 `json:"time_limit,omitempty"`
	QuiescenceDepth int     `json:"quiescence_depth,omitempty"`
}

func (c LevelConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSec * float64(time.Second))
}

// DefaultLevels 五个内置档位，难度从低到高
func DefaultLevels() []LevelConfig {
	return []LevelConfig{
		{Level: LevelRandom, Name: "新手小卒", Difficulty: 1, Description: "随机走子，优先吃子、避免丢子"},
		{Level: LevelGreedy, Name: "贪心将军", Difficulty: 2, Description: "只看一步，优先吃子"},
		{Level: LevelMinimax, Name: "谋略军师", Difficulty: 3, Description: "固定深度极大极小搜索", Depth: 3},
		{Level: LevelAlphaBeta, Name: "深算国手", Difficulty: 4, Description: "Alpha-Beta 剪枝 + 迭代加深", Depth: 8, TimeLimitSec: 30},
		{Level: LevelMaster, Name: "绝世棋圣", Difficulty: 5, Description: "深度搜索 + 连将杀 + 高级裁剪", Depth: 10, TimeLimitSec: 60, QuiescenceDepth: 8},
	}
}

// Player 一个会走棋的 AI。实现都不是并发安全的，一局一个。
type Player interface {
	Name() string
	Level() Level
	// ChooseMove limit<=0 时用档位默认时间
	ChooseMove(b *xiangqi.Board, side xiangqi.Side, limit time.Duration) SearchResult
}

// NewPlayer 按档位构造 AI
func NewPlayer(cfg LevelConfig) (Player, error) {
	switch cfg.Level {
	case LevelRandom:
		return NewRandomPlayer(cfg, time.Now().UnixNano()), nil
	case LevelGreedy:
		return &greedyPlayer{cfg: cfg, eval: NewEvaluator(false)}, nil
	case LevelMinimax:
		return &minimaxPlayer{cfg: cfg, eval: NewEvaluator(false)}, nil
	case LevelAlphaBeta:
		return &searchPlayer{cfg: cfg, engine: NewEngine(false), variant: VariantAlphaBeta}, nil
	case LevelMaster:
		return &searchPlayer{cfg: cfg, engine: NewEngine(true), variant: VariantMaster, mateFirst: true}, nil
	}
	return nil, errors.Wrapf(ErrUnknownLevel, "%q", cfg.Level)
}

// FindLevel 在档位表里按名字找
func FindLevel(levels []LevelConfig, level Level) (LevelConfig, error) {
	for _, l := range levels {
		if l.Level == level {
			return l, nil
		}
	}
	return LevelConfig{}, errors.Wrapf(ErrUnknownLevel, "%q", level)
}

// searchPlayer alphabeta / master 两档：迭代加深搜索
type searchPlayer struct {
	cfg       LevelConfig
	engine    *Engine
	variant   Variant
	mateFirst bool
}

func (p *searchPlayer) Name() string { return p.cfg.Name }
func (p *searchPlayer) Level() Level { return p.cfg.Level }

func (p *searchPlayer) ChooseMove(b *xiangqi.Board, side xiangqi.Side, limit time.Duration) SearchResult {
	if limit <= 0 {
		limit = p.cfg.TimeLimit()
	}
	if p.mateFirst {
		start := time.Now()
		if r := FindCheckMate(b, side, mateSearchDepth); r.Found {
			return SearchResult{
				BestMove:   r.Move,
				Found:      true,
				Score:      sideSign(side) * (mateScore - r.Plies),
				WinProb:    float32(1+sideSign(side)) / 2,
				Depth:      r.Plies,
				Nodes:      int64(r.Nodes),
				TimeUsed:   time.Since(start),
				Candidates: []Candidate{{Move: r.Move, Score: sideSign(side) * (mateScore - r.Plies)}},
				PV:         r.Line,
			}
		}
	}
	return p.engine.Search(b, side, SearchConfig{
		MaxDepth:        p.cfg.Depth,
		TimeLimit:       limit,
		QuiescenceDepth: p.cfg.QuiescenceDepth,
		Variant:         p.variant,
	})
}
