package capture

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/media"
)

// WatchDisplay ends track when the X server for displayNum goes away, which
// is what stopping a share looks like from the capture side: the socket in
// socketDir is removed. The watch lasts until the track ends.
func WatchDisplay(ctx context.Context, socketDir string, displayNum int, track *media.Track) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(socketDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", socketDir, err)
	}

	log := logger.FromContext(ctx)
	socket := filepath.Join(socketDir, fmt.Sprintf("X%d", displayNum))

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-track.Ended():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != socket {
					continue
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Info("display went away, ending capture", "display", displayNum)
					track.Stop()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("display watcher error", "err", err, "display", displayNum)
			}
		}
	}()
	return nil
}
