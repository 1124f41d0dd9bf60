// Package randsrc provides the random source shared by pricing, identifier
// generation and seat assignment. Tests pin it by constructing a seeded source.
package randsrc

import (
	"math/rand/v2"
	"sync"
	"time"
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

// Locked serialises access to a *rand.Rand so one source can be shared across requests.
type Locked struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSeeded(seed uint64) *Locked {
	return &Locked{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// New seeds from the wall clock when seed is zero.
func New(seed uint64) *Locked {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewSeeded(seed)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.IntN(n)
}

var _ Source = (*Locked)(nil)
