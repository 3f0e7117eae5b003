// ════════════════════════════════════════════════════════════════════════════════════════════════
// Scenario Loading
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index — Stress Driver
// Component: JSON Scenario Description + Deterministic Shape Generation
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"

	"octree/geom"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

// Scenario describes one stress run, loaded from a JSON file the same way
// syncharvester.go decodes RPC payloads: sonnet.Unmarshal into a plain struct.
type Scenario struct {
	SizeLog     uint32 `json:"sizeLog"`
	BufferBytes uint32 `json:"bufferBytes"`
	Workers     uint32 `json:"workers"`
	ShapeCount  int    `json:"shapeCount"`
	Seed        string `json:"seed"`
}

func loadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}

	var s Scenario
	if err := sonnet.Unmarshal(data, &s); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// deterministicShapes derives a reproducible pseudo-random shape stream from the
// scenario's seed via sha3, so reruns are comparable across machines without
// depending on math/rand's version-sensitive stream.
func deterministicShapes(seed string, n int, world float32) []geom.ShapeData {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte(seed))

	buf := make([]byte, n*16)
	_, _ = h.Read(buf)

	shapes := make([]geom.ShapeData, n)
	for i := 0; i < n; i++ {
		b := buf[i*16 : i*16+16]
		x := float32(b[0]) / 255 * world
		y := float32(b[1]) / 255 * world
		z := float32(b[2]) / 255 * world
		sx := 1 + float32(b[3])/255*(world/8)
		sy := 1 + float32(b[4])/255*(world/8)
		sz := 1 + float32(b[5])/255*(world/8)

		shapes[i] = geom.ShapeData{
			AABB: geom.AABB{
				Min: geom.Point{X: x, Y: y, Z: z},
				Max: geom.Point{X: x + sx, Y: y + sy, Z: z + sz},
			},
			Index: uint32(i),
		}
	}
	return shapes
}
