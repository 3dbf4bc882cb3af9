package progress

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/atreader/reader"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Syncer reconciles the local repo with the server. The newer UpdatedAt wins.
type Syncer struct {
	local    Repo
	remote   reader.ReaderRepo
	nowFunc  func() time.Time
	logger   zerolog.Logger
	lock     sync.Mutex
	lastSync *time.Time
}

type SyncerOption func(*Syncer)

// WithNowFunc sets the clock used to stamp positions (primarily for testing)
func WithNowFunc(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

func NewSyncer(local Repo, remote reader.ReaderRepo, opts ...SyncerOption) (*Syncer, error) {
	if local == nil {
		return nil, errors.New("[NewSyncer] local repo is required")
	}
	if remote == nil {
		return nil, errors.New("[NewSyncer] remote repo is required")
	}
	s := &Syncer{
		local:   local,
		remote:  remote,
		nowFunc: time.Now,
		logger:  log.With().Str("component", "progress").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record saves position locally and sends it to the server. A zero UpdatedAt
// is stamped with now. The local copy is kept when sending fails.
func (s *Syncer) Record(ctx context.Context, position reader.ReadingPosition) error {
	if position.UpdatedAt.IsZero() {
		position.UpdatedAt = s.nowFunc().UTC()
	}
	if err := s.local.SaveLocal(position); err != nil {
		return errors.Wrap(err, "[Syncer.Record] save local")
	}
	if err := s.remote.SendProgress(ctx, position); err != nil {
		return errors.Wrap(err, "[Syncer.Record] send")
	}
	return nil
}

// Pull fetches positions changed on the server since the previous successful
// pull and applies those newer than the local copy. It returns how many were
// applied.
func (s *Syncer) Pull(ctx context.Context) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	started := s.nowFunc().UTC()
	remote, err := s.remote.SyncProgress(ctx, s.lastSync)
	if err != nil {
		return 0, errors.Wrap(err, "[Syncer.Pull]")
	}

	applied := 0
	for _, p := range remote {
		local, err := s.local.LoadLocal(p.WorkID, p.ChapterID)
		if err != nil {
			return applied, errors.Wrap(err, "[Syncer.Pull] load local")
		}
		if local != nil && !p.UpdatedAt.After(local.UpdatedAt) {
			continue
		}
		if err := s.local.SaveLocal(p); err != nil {
			return applied, errors.Wrap(err, "[Syncer.Pull] save local")
		}
		applied++
	}

	s.lastSync = &started
	s.logger.Debug().Int("received", len(remote)).Int("applied", applied).Msg("Progress pulled")
	return applied, nil
}

// Local lists the positions stored on the device.
func (s *Syncer) Local() ([]reader.ReadingPosition, error) {
	positions, err := s.local.ListLocal()
	if err != nil {
		return nil, errors.Wrap(err, "[Syncer.Local]")
	}
	return positions, nil
}
