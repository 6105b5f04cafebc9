//go:build !unix

package filex

import (
	"os"
	"sync"
)

// Without flock the lock only excludes other users of this process.
var (
	heldMu sync.Mutex
	held   = map[string]struct{}{}
)

func lockFile(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	if _, ok := held[f.Name()]; ok {
		return ErrLocked
	}
	held[f.Name()] = struct{}{}
	return nil
}

func unlockFile(f *os.File) {
	heldMu.Lock()
	delete(held, f.Name())
	heldMu.Unlock()
}
