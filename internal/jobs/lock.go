package jobs

import "github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"

// cellKey identifies one coarse grid cell.
type cellKey struct {
	x, y int
}

// neighborhood returns the 3x3 block of cells centered on the cell containing
// p. Locking the block means two jobs whose search areas could touch the same
// courts never run concurrently, while far-apart jobs proceed in parallel.
func neighborhood(p geomatch.Point, cellKM float64) []cellKey {
	cx, cy := geomatch.Cell(p, cellKM)

	cells := make([]cellKey, 0, 9)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			cells = append(cells, cellKey{x: cx + dx, y: cy + dy})
		}
	}
	return cells
}

// areaLock is an in-process advisory lock over grid cells. All-or-nothing
// acquisition: a job holds every cell in its neighborhood or none.
type areaLock struct {
	held map[cellKey]bool
}

func newAreaLock() *areaLock {
	return &areaLock{held: make(map[cellKey]bool)}
}

// tryAcquire acquires all cells if none are held. Caller must hold the
// manager mutex.
func (l *areaLock) tryAcquire(cells []cellKey) bool {
	for _, c := range cells {
		if l.held[c] {
			return false
		}
	}
	for _, c := range cells {
		l.held[c] = true
	}
	return true
}

// release releases previously acquired cells. Caller must hold the manager
// mutex.
func (l *areaLock) release(cells []cellKey) {
	for _, c := range cells {
		delete(l.held, c)
	}
}
