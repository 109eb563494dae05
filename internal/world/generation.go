// Obstacle generation using layered simplex noise.
// The arena is sampled on a square grid; cells whose noise rises above the
// threshold become circular obstacles, skipping keep-out zones around bases.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
)

// GenConfig holds obstacle generation parameters.
type GenConfig struct {
	Seed           int64   // Noise seed (0 = random)
	Radius         float64 // Arena radius to sample
	Cell           float64 // Grid spacing between samples
	Threshold      float64 // Normalized noise level (0.0–1.0) above which a cell is blocked
	ObstacleRadius float64 // Footprint radius of each generated obstacle
	Clearance      float64 // Keep-out distance around each base
	MaxObstacles   int     // Upper bound on generated obstacles (0 = none)
}

// DefaultGenConfig returns a sparse layout suited to a small arena.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:           0,
		Radius:         8,
		Cell:           1.5,
		Threshold:      0.68,
		ObstacleRadius: 0.45,
		Clearance:      2.0,
		MaxObstacles:   6,
	}
}

// GenerateObstacles scatters obstacles over the arena. IDs start at firstID.
// Generated obstacles never overlap each other and stay Clearance away from
// every keep-out point.
func GenerateObstacles(cfg GenConfig, keepOut []orb.Point, firstID int) []*Obstacle {
	if cfg.MaxObstacles <= 0 || cfg.Cell <= 0 || cfg.ObstacleRadius <= 0 {
		return nil
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	noise := opensimplex.NewNormalized(seed)

	var out []*Obstacle
	steps := int(math.Floor(cfg.Radius / cfg.Cell))
	for i := -steps; i <= steps; i++ {
		for j := -steps; j <= steps; j++ {
			c := orb.Point{float64(i) * cfg.Cell, float64(j) * cfg.Cell}
			if Distance(c, orb.Point{})+cfg.ObstacleRadius > cfg.Radius {
				continue
			}
			if octaveNoise(noise, c[0], c[1], 3, 0.35, 0.5) < cfg.Threshold {
				continue
			}
			if nearAny(c, keepOut, cfg.Clearance+cfg.ObstacleRadius) || overlapsAny(c, cfg.ObstacleRadius, out) {
				continue
			}
			o, err := NewObstacle(firstID+len(out), c, cfg.ObstacleRadius)
			if err != nil {
				continue
			}
			out = append(out, o)
			if len(out) >= cfg.MaxObstacles {
				return out
			}
		}
	}
	return out
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func nearAny(p orb.Point, points []orb.Point, dist float64) bool {
	for _, q := range points {
		if Distance(p, q) < dist {
			return true
		}
	}
	return false
}

func overlapsAny(p orb.Point, radius float64, obstacles []*Obstacle) bool {
	for _, o := range obstacles {
		if Distance(p, o.Center) < radius+o.Radius {
			return true
		}
	}
	return false
}
