package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/grunsab/Titan/pkg/chess"
	"github.com/grunsab/Titan/pkg/engine"
	material "github.com/grunsab/Titan/pkg/eval/material"
	nnue "github.com/grunsab/Titan/pkg/eval/nnue"
)

var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

type UciEngine interface {
	Search(ctx context.Context, searchParams chess.SearchParams) chess.SearchInfo
}

func main() {
	var err = run()
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: titan-bench <tactic|bench> [flags]")
	}
	var command = os.Args[1]
	var args = os.Args[2:]

	switch command {
	case "tactic":
		var (
			testPath = mapPath("~/chess/tests/tests.epd")
			moveTime = 3
			threads  = 1
		)
		var flagset = flag.NewFlagSet("tactic", flag.ExitOnError)
		flagset.StringVar(&testPath, "testpath", testPath, "path to epd test suite")
		flagset.IntVar(&moveTime, "movetime", moveTime, "time per position in seconds")
		flagset.IntVar(&threads, "threads", threads, "number of search threads")
		flagset.Parse(args)
		return runSolveTactic(testPath, threads, time.Duration(moveTime)*time.Second)
	case "bench":
		var (
			testPath = mapPath("~/chess/tests/tests.epd")
			depth    = 10
			workers  = runtime.NumCPU()
		)
		var flagset = flag.NewFlagSet("bench", flag.ExitOnError)
		flagset.StringVar(&testPath, "testpath", testPath, "path to epd test suite")
		flagset.IntVar(&depth, "depth", depth, "fixed search depth")
		flagset.IntVar(&workers, "workers", workers, "number of concurrent engines")
		flagset.Parse(args)
		return runBenchmark(testPath, depth, workers)
	}
	return fmt.Errorf("unknown command %v", command)
}

func newEngine(threads int) *engine.Engine {
	var eng = engine.NewEngine(func() interface{} {
		if e, err := nnue.NewDefaultEvaluationService(); err == nil {
			return e
		} else {
			logger.Println("nnue weights not loaded, using material eval:", err)
		}
		return material.NewEvaluationService()
	})
	eng.Options.Hash = 128
	eng.Options.Threads = threads
	return eng
}
