// Package iocache persists computed scorecards and the history of scorecard runs.
package iocache

import (
	"sync"

	"github.com/huangsam/scorecard/internal/contract"
)

// CacheStoreManager manages the score cache and the run history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	score        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetScoreStore returns the scorecard CacheStore.
func (mgr *CacheStoreManager) GetScoreStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.score
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
