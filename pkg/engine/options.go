package engine

import (
	"math"

	"github.com/grunsab/Titan/pkg/chess"
)

// Options collects the search knobs. The pruning toggles exist so the
// heuristics can be switched off one at a time when validating the
// search against plain alpha-beta.
type Options struct {
	Hash              int
	Threads           int
	MoveOverhead      int
	ProgressMinNodes  int
	SplitDepth        int
	SplitMoves        int
	AspirationWindows bool
	NullMovePruning   bool
	ReverseFutility   bool
	LateMoveReduction bool
	Lmp               bool
	Futility          bool
	SeePruning        bool
	CheckExtension    bool
	OrderMoves        bool

	reductions [64][64]int
}

func NewOptions() Options {
	var result = Options{
		Hash:              16,
		Threads:           1,
		MoveOverhead:      300,
		ProgressMinNodes:  1_000_000,
		SplitDepth:        5,
		SplitMoves:        3,
		AspirationWindows: true,
		NullMovePruning:   true,
		ReverseFutility:   true,
		LateMoveReduction: true,
		Lmp:               true,
		Futility:          true,
		SeePruning:        true,
		CheckExtension:    true,
		OrderMoves:        true,
	}
	result.InitLmr(LmrMult)
	return result
}

func (o *Options) Lmr(d, m int) int {
	return o.reductions[chess.Min(d, 63)][chess.Min(m, 63)]
}

func (o *Options) InitLmr(f func(d, m float64) float64) {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			o.reductions[d][m] = int(f(float64(d), float64(m)))
		}
	}
}

func LmrMult(d, m float64) float64 {
	return lirp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}

func lirp(x, x1, x2, y1, y2 float64) float64 {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}
