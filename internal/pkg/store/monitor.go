package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
)

// DetectChanges reports modifications of keys stored under dir made by others,
// eg. configuration tool editing files directly. Events for keys reported
// by own as left in their current state by us are skipped, own may be nil.
func DetectChanges(ctx context.Context, dir string, own func(key string) bool) <-chan bool {
	var change = make(chan bool)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Info(fmt.Sprintf("cannot create watcher: %v", err), logger.Warning)
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		err = watcher.Add(dir)
		if err != nil {
			log.Info(fmt.Sprintf("cannot watch \"%s\" directory: %v", dir, err), logger.Warning)
			return
		}

		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			name := filepath.Base(event.Name)
			if strings.HasSuffix(name, tempSuffix) || !keyRegex.MatchString(name) {
				continue
			}
			if own != nil && own(name) {
				log.Info(fmt.Sprintf("own write skipped: %s (%s)", name, event.Op), logger.Debug)
				continue
			}
			log.Info(fmt.Sprintf("store change detected: %s (%s)", name, event.Op), logger.Info)
			select {
			case change <- true:
			case <-ctx.Done():
				return
			}
		}
	}()

	return change
}
