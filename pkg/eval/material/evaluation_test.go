package eval

import (
	"testing"

	"github.com/grunsab/Titan/pkg/chess"
)

func TestEvaluate(t *testing.T) {
	var tests = []struct {
		fen  string
		want int
	}{
		{chess.InitialPositionFen, 0},
		{"7k/8/8/8/8/8/8/K6Q w - - 0 1", 1200},
		{"7k/8/8/8/8/8/8/K6Q b - - 0 1", -1200},
		{"7k/pp6/8/8/8/8/8/K5NN w - - 0 1", 600},
	}
	var e = NewEvaluationService()
	for _, test := range tests {
		var p, err = chess.NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		if got := e.Evaluate(&p); got != test.want {
			t.Errorf("%v: got %d, want %d", test.fen, got, test.want)
		}
	}
}
