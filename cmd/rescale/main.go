package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/rescale"
	"github.com/esimov/rescale/config"
	"github.com/esimov/rescale/utils"
	"github.com/hashicorp/go-hclog"
)

const HelpBanner = `
┬─┐┌─┐┌─┐┌─┐┌─┐┬  ┌─┐
├┬┘├┤ └─┐│  ├─┤│  ├┤
┴└─└─┘└─┘└─┘┴ ┴┴─┘└─┘

Aspect ratio preserving image resizer.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source file, directory or URL")
	destination = flag.String("out", pipeName, "Destination file or directory")
	newWidth    = flag.Int("width", 0, "New width (0 keeps it unconstrained)")
	newHeight   = flag.Int("height", 0, "New height (0 keeps it unconstrained)")
	quality     = flag.Int("quality", 0, "JPEG and WebP quality, 1-100 (0 selects the format default)")
	lossless    = flag.Bool("lossless", false, "Use lossless WebP compression")
	filter      = flag.String("filter", rescale.DefaultFilter, "Resampling filter: "+strings.Join(rescale.FilterNames(), ", "))
	format      = flag.String("format", "", "Output format when writing to stdout (defaults to the source format)")
	orient      = flag.Bool("orient", false, "Apply the EXIF orientation of the source")
	perm        = flag.String("perm", "0666", "Permission of the saved files")
	workers     = flag.Int("conc", 0, "Number of files to process concurrently (0 selects the number of CPUs)")
	configFile  = flag.String("config", "", "TOML or YAML file with default options")
	watch       = flag.Bool("watch", false, "Watch the source directory and resize new images into the destination")
	logLevel    = flag.String("log-level", "warn", "Log level: trace, debug, info, warn, error, off")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := applyConfig(); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	mode, err := config.ParsePerm(*perm)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	level, err := config.ParseLogLevel(*logLevel)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "rescale",
		Level:  level,
		Output: os.Stderr,
	})

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ RESCALE", utils.StatusMessage),
		utils.DecorateText("is resizing the image...", utils.DefaultMessage))
	spinner := utils.NewSpinner(os.Stderr, spinnerText, time.Millisecond*200, true)
	spinner.StopMsg = fmt.Sprintf("%s %s\n",
		utils.DecorateText("⚡ RESCALE", utils.StatusMessage),
		utils.DecorateText("is resizing the image... ✔", utils.DefaultMessage))

	proc := &rescale.Processor{
		NewWidth:   *newWidth,
		NewHeight:  *newHeight,
		Quality:    *quality,
		Lossless:   *lossless,
		Filter:     *filter,
		Format:     *format,
		Perm:       mode,
		AutoOrient: *orient,
		Logger:     logger,
		Spinner:    spinner,
	}

	if *newWidth == 0 && *newHeight == 0 {
		flag.Usage()
		log.Fatal(fmt.Sprintf("%s%s",
			utils.DecorateText("\nPlease provide a width or height for image rescaling!", utils.ErrorMessage),
			utils.DefaultColor,
		))
	}

	// Capture CTRL-C signal and restore the cursor visibility back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		spinner.RestoreCursor()
	}()

	if *watch {
		err = proc.Watch(ctx, *source, *destination, func(path string, size rescale.Size, err error) {
			op := &rescale.Ops{PipeName: pipeName}
			op.PrintStatus(path, size, err)
		})
	} else {
		err = proc.Execute(ctx, &rescale.Ops{
			Src:      *source,
			Dst:      *destination,
			PipeName: pipeName,
			Workers:  *workers,
		})
	}
	if err != nil {
		stop()
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
}

// applyConfig loads the config file, if any, into the flags which were not
// set explicitly on the command line.
func applyConfig() error {
	if *configFile == "" {
		return nil
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["width"] && cfg.Width != 0 {
		*newWidth = cfg.Width
	}
	if !set["height"] && cfg.Height != 0 {
		*newHeight = cfg.Height
	}
	if !set["quality"] && cfg.Quality != 0 {
		*quality = cfg.Quality
	}
	if !set["lossless"] && cfg.Lossless {
		*lossless = true
	}
	if !set["filter"] && cfg.Filter != "" {
		*filter = cfg.Filter
	}
	if !set["format"] && cfg.Format != "" {
		*format = cfg.Format
	}
	if !set["perm"] && cfg.Perm != "" {
		*perm = cfg.Perm
	}
	if !set["orient"] && cfg.AutoOrient {
		*orient = true
	}
	if !set["conc"] && cfg.Workers != 0 {
		*workers = cfg.Workers
	}
	if !set["log-level"] && cfg.LogLevel != "" {
		*logLevel = cfg.LogLevel
	}
	return nil
}
