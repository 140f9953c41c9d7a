package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grunsab/Titan/pkg/chess"
	"golang.org/x/sync/errgroup"
)

// runBenchmark searches every test position to a fixed depth. Positions
// are fanned out over several single-threaded engines so the machine is
// saturated even though each search runs alone.
func runBenchmark(testPath string, depth, workers int) error {
	logger.Println("benchmark started",
		"testpath", testPath,
		"depth", depth,
		"workers", workers)
	defer logger.Println("benchmark finished")

	var tests, err = loadEpd(testPath)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(context.Background())

	var positions = make(chan chess.Position, 128)
	g.Go(func() error {
		defer close(positions)
		for i := range tests {
			select {
			case positions <- tests[i].position:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var nodes int64
	var start = time.Now()

	var wg = &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			var eng = newEngine(1)
			eng.Prepare()
			for p := range positions {
				var searchInfo = eng.Search(ctx, chess.SearchParams{
					Positions: []chess.Position{p},
					Limits:    chess.LimitsType{Depth: depth},
				})
				atomic.AddInt64(&nodes, searchInfo.Nodes)
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	var elapsed = time.Since(start)
	fmt.Println("Time", elapsed)
	fmt.Println("Nodes", atomic.LoadInt64(&nodes))
	if ms := elapsed.Milliseconds(); ms > 0 {
		fmt.Println("kNPS", atomic.LoadInt64(&nodes)/ms)
	}
	return nil
}
