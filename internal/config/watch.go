package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watch reloads the file at path whenever it changes and hands the result
// to fn. Invalid files are reported through onErr and otherwise ignored.
// The directory is watched rather than the file so editors that replace
// the file on save are followed. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config), onErr func(error)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			cfg, err := Load(abs)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			fn(cfg)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}
