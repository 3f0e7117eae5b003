// ════════════════════════════════════════════════════════════════════════════════════════════════
// Stress Driver — Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index — Stress Driver
// Component: Worker Pool, Phased Orchestration, Benchmark Telemetry
//
// Description:
//   Exercises the interface the octree engine's synchronized entry points consume: a
//   stable worker index supplied by an external scheduler. Worker pool, RNG and
//   benchmark plumbing live here, out of the core's scope per spec — mirroring main.go's
//   phased orchestration (build → mutate in parallel → GC → record) with debug-style
//   progress lines on every phase boundary.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"database/sql"
	"flag"
	"runtime"
	"sync"
	"time"

	"octree/affinity"
	"octree/diag"
	"octree/geom"
	"octree/octree"
)

func main() {
	mode := flag.String("mode", "smoke", "scenario mode: smoke or parallel")
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file (parallel mode)")
	dbPath := flag.String("db", "stress.db", "sqlite database for run telemetry")
	flag.Parse()

	diag.Info("INIT", "stress driver starting, mode="+*mode)

	db, err := openTelemetryDB(*dbPath)
	if err != nil {
		diag.Warn("DB_OPEN", err)
		return
	}
	defer db.Close()

	switch *mode {
	case "smoke":
		runSmoke(db)
	case "parallel":
		runParallel(db, *scenarioPath)
	default:
		diag.Info("MODE", "unknown mode "+*mode+", expected smoke or parallel")
	}
}

// runSmoke reproduces the original main.cpp driver: a single add-then-remove round
// trip via the exclusive entry points, directly demonstrating invariant 3 (add/remove
// are inverses in the non-concurrent case).
func runSmoke(db *sql.DB) {
	start := time.Now()

	tree, err := octree.New(octree.Config{SizeLog: 4, BufferBytes: 1 << 20, Workers: 1})
	if err != nil {
		diag.Warn("SMOKE_NEW", err)
		return
	}

	world := tree.FieldSize()
	shape := geom.ShapeData{
		AABB: geom.AABB{
			Min: geom.Point{X: world / 4, Y: world / 4, Z: world / 4},
			Max: geom.Point{X: world / 2, Y: world / 2, Z: world / 2},
		},
		Index: 1,
	}

	diag.Info("SMOKE", "add then remove one shape via the exclusive path")
	if err := tree.AddExclusive(shape); err != nil {
		diag.Warn("SMOKE_ADD", err)
		return
	}
	tree.RemoveExclusive(shape)

	diag.Info("SMOKE", "round trip complete in "+time.Since(start).String())
}

// runParallel loads a scenario, shards its shape set across Workers pinned goroutines,
// runs a full GC cycle, and records the result.
func runParallel(db *sql.DB, path string) {
	scenario, err := loadScenario(path)
	if err != nil {
		diag.Warn("SCENARIO_LOAD", err)
		return
	}

	start := time.Now()

	tree, err := octree.New(octree.Config{
		SizeLog:     scenario.SizeLog,
		BufferBytes: scenario.BufferBytes,
		Workers:     scenario.Workers,
	})
	if err != nil {
		diag.Warn("PARALLEL_NEW", err)
		return
	}

	shapes := deterministicShapes(scenario.Seed, scenario.ShapeCount, tree.FieldSize())

	diag.Info("MUTATE", "adding shapes across workers")
	if err := shardedMutate(tree, shapes, scenario.Workers, func(t *octree.Tree, s geom.ShapeData, w uint32) error {
		return t.AddSynchronized(s, w)
	}); err != nil {
		diag.Warn("MUTATE_ADD", err)
		return
	}

	diag.Info("GC", "preparing garbage collection")
	roots := tree.PrepareGarbageCollection(0)

	var wg sync.WaitGroup
	errs := make([]error, len(roots))
	for i, root := range roots {
		wg.Add(1)
		go func(i int, root octree.GCRoot) {
			defer wg.Done()
			errs[i] = tree.CollectGarbage(root)
		}(i, root)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			diag.Warn("GC_COLLECT", e)
			return
		}
	}

	stats := runStats{
		Scenario:       path,
		Workers:        scenario.Workers,
		ShapeCount:     scenario.ShapeCount,
		GCCycles:       1,
		SurvivingRoots: len(roots),
		WallMillis:     time.Since(start).Milliseconds(),
	}
	if err := recordRun(db, stats); err != nil {
		diag.Warn("RECORD", err)
		return
	}

	diag.Info("DONE", "run recorded")
}

// shardedMutate spins up Workers goroutines, each pinned with runtime.LockOSThread plus
// a best-effort CPU affinity hint, and hands each a disjoint shard of shapes — the
// worker-index-per-goroutine pattern this octree's synchronized entry points require.
func shardedMutate(tree *octree.Tree, shapes []geom.ShapeData, workers uint32, apply func(*octree.Tree, geom.ShapeData, uint32) error) error {
	if workers == 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for w := uint32(0); w < workers; w++ {
		wg.Add(1)
		go func(worker uint32) {
			defer wg.Done()

			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			affinity.PinWorker(worker)

			for i := int(worker); i < len(shapes); i += int(workers) {
				if err := apply(tree, shapes[i], worker); err != nil {
					errs[worker] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
