package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// ScriptedSource replays a fixed list of face values. It is used to force
// specific rolls (a natural 20, a known damage total) in tests and replays.
//
// Each queued value is a 1-based face; Intn(n) returns face-1 clamped into
// [0, n). Once the script is exhausted every call returns 0 (a face of 1).
type ScriptedSource struct {
	mu    sync.Mutex
	faces []int
	calls int
}

// NewScriptedSource returns a ScriptedSource that yields faces in order.
func NewScriptedSource(faces ...int) *ScriptedSource {
	cp := make([]int, len(faces))
	copy(cp, faces)
	return &ScriptedSource{faces: cp}
}

// Intn returns the next scripted face minus one, clamped into [0, n).
//
// Precondition: n > 0.
func (s *ScriptedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.faces) == 0 {
		return 0
	}
	face := s.faces[0]
	s.faces = s.faces[1:]
	v := face - 1
	if v < 0 {
		v = 0
	}
	if v >= n {
		v = n - 1
	}
	return v
}

// Calls returns how many times Intn has been invoked.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
