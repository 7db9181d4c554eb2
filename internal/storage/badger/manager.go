package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	job    interfaces.JobStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		job:    NewJobStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// JobStorage returns the job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// RunMaintenance triggers a value log garbage collection pass.
// Badger returns ErrNoRewrite when there is nothing to reclaim.
func (m *Manager) RunMaintenance() error {
	if m.db == nil {
		return nil
	}

	err := m.db.Store().Badger().RunValueLogGC(0.5)
	if err != nil && err != badger.ErrNoRewrite {
		m.logger.Warn().Err(err).Msg("Value log GC failed")
		return err
	}
	if err == nil {
		m.logger.Debug().Msg("Value log GC reclaimed space")
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
