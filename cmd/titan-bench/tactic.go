package main

import (
	"context"
	"fmt"
	"time"

	"github.com/grunsab/Titan/pkg/chess"
)

func runSolveTactic(testPath string, threads int, moveTime time.Duration) error {
	logger.Println("solveTactic started",
		"testpath", testPath,
		"threads", threads,
		"moveTime", moveTime)
	defer logger.Println("solveTactic finished")

	var tests, err = loadEpd(testPath)
	if err != nil {
		return err
	}
	var eng = newEngine(threads)
	eng.Options.ProgressMinNodes = 0
	eng.Prepare()
	return solveTactic(tests, eng, moveTime)
}

func solveTactic(tests []epdItem, eng UciEngine, moveTime time.Duration) error {
	var ctx = context.Background()
	var start = time.Now()
	var total, solved int
	for i := range tests {
		var test = &tests[i]
		var searchInfo = eng.Search(ctx, chess.SearchParams{
			Positions: []chess.Position{test.position},
			Limits:    chess.LimitsType{MoveTime: int(moveTime / time.Millisecond)},
		})
		var passed = false
		if len(searchInfo.MainLine) != 0 {
			var bestMove = searchInfo.MainLine[0]
			for _, mv := range test.bestMoves {
				if mv == bestMove {
					passed = true
					break
				}
			}
		}
		total++
		if passed {
			solved++
		} else {
			fmt.Println("failed:", test.content)
		}
		fmt.Printf("Solved: %v, Total: %v\n", solved, total)
	}
	fmt.Println("Time", time.Since(start))
	return nil
}
