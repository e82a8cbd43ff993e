package rescale

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watchDebounce is how long a file has to stay quiet before it is processed.
const watchDebounce = 500 * time.Millisecond

// pendingFile is a debounced file waiting to be processed.
type pendingFile struct {
	timer *time.Timer
}

// Watch monitors the src directory tree and resizes every supported image
// that is created or rewritten into the same relative path under dst.
// It blocks until ctx is cancelled. The optional onDone callback receives
// the outcome of every processed file.
func (p *Processor) Watch(ctx context.Context, src, dst string, onDone func(path string, size Size, err error)) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return errors.Wrap(err, "unable to create the destination directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create the file watcher")
	}
	defer fsw.Close()

	absDst, _ := filepath.Abs(dst)
	addTree := func(root string) error {
		return filepath.Walk(root, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.IsDir() {
				return nil
			}
			if abs, _ := filepath.Abs(path); abs == absDst {
				return filepath.SkipDir
			}
			p.logger().Debug("watching", "dir", path)
			return fsw.Add(path)
		})
	}
	if err := addTree(src); err != nil {
		return errors.Wrapf(err, "failed to watch %s", src)
	}
	p.logger().Info("watching for images", "src", src, "dst", dst)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		debounce = make(map[string]*pendingFile)
	)
	defer func() {
		mu.Lock()
		for name, pf := range debounce {
			if pf.timer.Stop() {
				wg.Done()
			}
			delete(debounce, name)
		}
		mu.Unlock()
		wg.Wait()
	}()

	handle := func(name string, pf *pendingFile) {
		mu.Lock()
		if debounce[name] == pf {
			delete(debounce, name)
		}
		mu.Unlock()
		defer wg.Done()

		rel, err := filepath.Rel(src, name)
		if err != nil {
			rel = filepath.Base(name)
		}
		out := filepath.Join(dst, rel)

		var size Size
		if err = os.MkdirAll(filepath.Dir(out), 0755); err == nil {
			size, err = p.ProcessFile(name, out)
		}
		if err != nil {
			p.logger().Error("failed to resize image", "src", name, "error", err)
		} else {
			p.logger().Info("image resized", "src", name, "dst", out, "size", size)
		}
		if onDone != nil {
			onDone(name, size, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addTree(event.Name); err != nil {
						p.logger().Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			// Skip temp files and formats we cannot resize.
			if strings.HasPrefix(filepath.Base(event.Name), ".") || !isSupportedExt(event.Name) {
				continue
			}

			name := event.Name
			mu.Lock()
			if prev, exists := debounce[name]; exists && prev.timer.Stop() {
				wg.Done()
			}
			wg.Add(1)
			pf := &pendingFile{}
			pf.timer = time.AfterFunc(watchDebounce, func() { handle(name, pf) })
			debounce[name] = pf
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			p.logger().Error("watcher error", "error", err)
		}
	}
}
