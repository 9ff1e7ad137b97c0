package random

import "sync"

// Script is a deterministic Source that replays fixed queues of values, one
// queue per draw kind. When a queue runs dry the last value is repeated; an
// empty queue yields the zero value (0, min, false, 0).
//
// Intn values are reduced modulo n so any scripted int is in range. Uniform
// values are scripted as fractions in [0, 1) and scaled onto [min, max).
type Script struct {
	mu         sync.Mutex
	Ints       []int
	Uniforms   []float64
	Bernoullis []bool
	ChiSquares []float64
	calls      map[Kind]int
}

// Calls reports how many draws of kind were made.
func (s *Script) Calls(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func (s *Script) next(kind Kind) int {
	if s.calls == nil {
		s.calls = make(map[Kind]int)
	}
	i := s.calls[kind]
	s.calls[kind]++
	return i
}

func pick[T any](queue []T, i int) T {
	var zero T
	if len(queue) == 0 {
		return zero
	}
	if i >= len(queue) {
		return queue[len(queue)-1]
	}
	return queue[i]
}

func (s *Script) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pick(s.Ints, s.next(KindIntn)) % n
	if v < 0 {
		v += n
	}
	return v
}

func (s *Script) Uniform(min, max float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + pick(s.Uniforms, s.next(KindUniform))*(max-min)
}

func (s *Script) Bernoulli(_ float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pick(s.Bernoullis, s.next(KindBernoulli))
}

func (s *Script) ChiSquare(_ float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pick(s.ChiSquares, s.next(KindChiSquare))
}
