package views

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long Watch waits after the last change before reloading.
const debounce = 300 * time.Millisecond

// Logger is satisfied by echo.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Watch reloads the set whenever a template file in its directory changes,
// until ctx is done. A failed reload keeps the previous templates.
func (s *Set) Watch(ctx context.Context, logger Logger) error {
	if s.dir == "" {
		return errors.New("views: embedded templates cannot be watched")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".html" {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					if err := s.Reload(); err != nil {
						logger.Warnf("reload templates: %v", err)
						return
					}
					logger.Infof("templates reloaded after change to %s", filepath.Base(event.Name))
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("template watcher: %v", err)
			}
		}
	}()
	return nil
}
