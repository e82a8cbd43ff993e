package rescale

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/rescale/utils"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops describes the source and destination of an Execute run.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	// Stderr receives the status messages. Nil means os.Stderr.
	Stderr io.Writer
}

// result holds the relevant information about the resizing process and the generated image.
type result struct {
	path string
	size Size
	err  error
}

// Execute runs the resize operation described by op.
// The source can be a local file, an URL, the pipe name (stdin) or a
// directory; a directory is processed recursively by concurrent workers
// into the destination directory, keeping the relative layout.
func (p *Processor) Execute(ctx context.Context, op *Ops) error {
	if err := p.Validate(); err != nil {
		return err
	}

	src := op.Src
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(src)
		if f != nil {
			f.Close()
			defer os.Remove(f.Name())
		}
		if err != nil {
			return errors.Wrap(err, "failed to load the source image")
		}
		src = f.Name()
	}

	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return errors.Wrap(err, "failed to load the source image")
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = p.executeDir(ctx, op, src)
	case src == op.PipeName || mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		if op.Dst != op.PipeName && !isSupportedExt(op.Dst) {
			_, err = FormatFromPath(op.Dst)
			return err
		}
		var size Size
		size, err = p.process(op, src, op.Dst)
		op.PrintStatus(op.Dst, size, err)
	default:
		return errors.Errorf("%s is neither a file nor a directory", src)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(op.stderr(), "\nExecution time: %s\n",
		op.decorate(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

func (op *Ops) stderr() io.Writer {
	if op.Stderr == nil {
		return os.Stderr
	}
	return op.Stderr
}

// decorate colors s only when the status output is a terminal.
func (op *Ops) decorate(s string, msgType utils.MessageType) string {
	if !utils.IsTerminal(op.stderr()) {
		return s
	}
	return utils.DecorateText(s, msgType)
}

func (op *Ops) workers() int {
	// Limit the concurrently running workers to maxWorkers.
	if op.Workers <= 0 || op.Workers > maxWorkers {
		return utils.Min(runtime.NumCPU(), maxWorkers)
	}
	return op.Workers
}

// executeDir resizes every supported image found under dir.
func (p *Processor) executeDir(ctx context.Context, op *Ops, dir string) error {
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return errors.Wrap(err, "unable to create the destination directory")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		n     = op.workers()
		ch    = make(chan result)
		paths = make(chan string)
		errc  = make(chan error, 1)
	)

	// Process recursively the image files from the specified directory concurrently.
	go func() {
		defer close(paths)
		errc <- walkDir(ctx, dir, op.Dst, paths)
	}()

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p.consumer(ctx, op, dir, paths, ch)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var (
		firstErr error
		failed   int
		total    int
	)
	for res := range ch {
		total++
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = errors.Wrapf(res.err, "resizing %s", res.path)
			}
		}
		op.PrintStatus(res.path, res.size, res.err)
	}

	if err := <-errc; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger().Info("directory processed", "src", dir, "dst", op.Dst, "images", total, "failed", failed)
	if firstErr != nil {
		return errors.Wrapf(firstErr, "%d of %d images failed", failed, total)
	}
	return nil
}

// consumer reads the path names from the paths channel and calls the resizing processor against the source image.
func (p *Processor) consumer(
	ctx context.Context,
	op *Ops,
	root string,
	paths <-chan string,
	res chan<- result,
) {
	for src := range paths {
		rel, err := filepath.Rel(root, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(op.Dst, rel)

		var size Size
		if err = os.MkdirAll(filepath.Dir(dst), 0755); err == nil {
			size, err = p.ProcessFile(src, dst)
		}

		select {
		case <-ctx.Done():
			return
		case res <- result{
			path: src,
			size: size,
			err:  err,
		}:
		}
	}
}

// process calls the resizer method over the source image and returns the error in case exists.
func (p *Processor) process(op *Ops, in, out string) (Size, error) {
	if in != op.PipeName && out != op.PipeName {
		if p.Spinner != nil {
			p.Spinner.Start()
			defer p.Spinner.Stop()
		}
		return p.ProcessFile(in, out)
	}

	var src io.Reader
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return Size{}, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		f, err := os.Open(in)
		if err != nil {
			return Size{}, errors.Wrap(err, "unable to open the source file")
		}
		defer f.Close()
		src = f
	}

	// Check if the destination is a pipe name or a regular file.
	if out != op.PipeName {
		img, err := Decode(src, WithAutoOrient(p.AutoOrient))
		if err != nil {
			return Size{}, err
		}
		return p.save(img, in, out)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return Size{}, errors.New("`-` should be used with a pipe for stdout")
	}
	return p.Process(src, os.Stdout)
}

// PrintStatus displays the relevant information about the image resizing process.
func (op *Ops) PrintStatus(fname string, size Size, err error) {
	w := op.stderr()
	if err != nil {
		fmt.Fprintf(w, "%s %s\n",
			op.decorate("Error resizing the image:", utils.ErrorMessage),
			op.decorate(fmt.Sprintf("%s\n\tReason: %v", fname, err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(w, "The image has been saved as: %s\n",
			op.decorate(fmt.Sprintf("%s (%s)", filepath.Base(fname), size), utils.SuccessMessage),
		)
	}
}

// walkDir walks the directory tree rooted at src and sends the path of
// every regular file with a supported extension on paths. The destination
// directory is skipped when it is nested in src.
// It stops when the context is cancelled.
func walkDir(ctx context.Context, src, dst string, paths chan<- string) error {
	dst, _ = filepath.Abs(dst)
	return filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			if abs, _ := filepath.Abs(path); abs == dst && path != src {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.Mode().IsRegular() || strings.HasPrefix(f.Name(), ".") {
			return nil
		}
		if !isSupportedExt(f.Name()) {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.New("directory walk cancelled")
		case paths <- path:
		}
		return nil
	})
}
