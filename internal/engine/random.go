package engine

import (
	"math/rand/v2"
	"time"
)

// Picker is the engine's only source of randomness: role shuffling,
// tie-breaks and retaliation targets all go through it.
type Picker interface {
	// Pick returns an index in [0, n). n is always at least 1.
	Pick(n int) int
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(n int) int

func (f PickerFunc) Pick(n int) int { return f(n) }

type randPicker struct {
	r *rand.Rand
}

// NewRandPicker returns a Picker with a fixed seed, so a run can be replayed.
func NewRandPicker(seed uint64) Picker {
	return &randPicker{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func defaultPicker() Picker {
	return NewRandPicker(uint64(time.Now().UnixNano()))
}

func (p *randPicker) Pick(n int) int {
	return p.r.IntN(n)
}

// pick clamps whatever the picker returns into range so a misbehaving stub
// cannot index out of bounds.
func pick(p Picker, n int) int {
	i := p.Pick(n)
	if i < 0 || i >= n {
		i = ((i % n) + n) % n
	}
	return i
}

// shuffle is Fisher-Yates driven by the picker.
func shuffle[T any](p Picker, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := pick(p, i+1)
		s[i], s[j] = s[j], s[i]
	}
}
