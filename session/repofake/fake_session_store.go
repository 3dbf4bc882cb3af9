package fakesessionstore

import (
	"encoding/json"
	"sync"

	"github.com/jrsteele09/atreader/session"
)

var _ session.Store = (*FakeSessionStore)(nil)

// FakeSessionStore keeps the serialized record in memory. The *Err fields
// make the matching call fail.
type FakeSessionStore struct {
	record    []byte
	SaveErr   error
	LoadErr   error
	ClearErr  error
	SaveCalls int
	lock      sync.RWMutex
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

func (fs *FakeSessionStore) Save(s *session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	fs.record = data
	return nil
}

func (fs *FakeSessionStore) Load() (*session.Session, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	if fs.record == nil {
		return nil, nil
	}
	var s session.Session
	if err := json.Unmarshal(fs.record, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (fs *FakeSessionStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.record = nil
	return nil
}

// Empty reports whether no record is stored.
func (fs *FakeSessionStore) Empty() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.record == nil
}
