package wager

import (
	"math/rand/v2"
	"sync"
)

// Random is the uniform source the outcome generator draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

const pcgStreamSalt uint64 = 0x9e3779b97f4a7c15

// SystemRandom returns the process-wide generator; it is safe for concurrent use.
func SystemRandom() Random {
	return systemRandom{}
}

// NewSeededRandom returns a reproducible generator guarded for concurrent plays.
func NewSeededRandom(seed uint64) Random {
	return &lockedRandom{source: rand.New(rand.NewPCG(seed, seed^pcgStreamSalt))}
}

type systemRandom struct{}

func (systemRandom) Float64() float64 {
	return rand.Float64()
}

func (systemRandom) IntN(n int) int {
	return rand.IntN(n)
}

type lockedRandom struct {
	mutex  sync.Mutex
	source *rand.Rand
}

func (random *lockedRandom) Float64() float64 {
	random.mutex.Lock()
	defer random.mutex.Unlock()
	return random.source.Float64()
}

func (random *lockedRandom) IntN(n int) int {
	random.mutex.Lock()
	defer random.mutex.Unlock()
	return random.source.IntN(n)
}

// rollDie returns a uniform integer in [1, faces].
func rollDie(random Random, faces int) int {
	return random.IntN(faces) + 1
}
