package progress

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jrsteele09/atreader/reader"
)

var _ Repo = (*MemoryRepo)(nil)

// MemoryRepo is a process-local Repo.
type MemoryRepo struct {
	positions map[string]reader.ReadingPosition
	lock      sync.RWMutex
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{positions: make(map[string]reader.ReadingPosition)}
}

func key(workID, chapterID int) string {
	return fmt.Sprintf("%d-%d", workID, chapterID)
}

func (m *MemoryRepo) SaveLocal(position reader.ReadingPosition) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.positions[key(position.WorkID, position.ChapterID)] = position
	return nil
}

// LoadLocal returns nil when nothing is stored for the chapter.
func (m *MemoryRepo) LoadLocal(workID, chapterID int) (*reader.ReadingPosition, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	p, ok := m.positions[key(workID, chapterID)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListLocal returns all positions ordered by work then chapter.
func (m *MemoryRepo) ListLocal() ([]reader.ReadingPosition, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	out := make([]reader.ReadingPosition, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkID != out[j].WorkID {
			return out[i].WorkID < out[j].WorkID
		}
		return out[i].ChapterID < out[j].ChapterID
	})
	return out, nil
}
