package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gioui.org/app"
	coloring "github.com/jeana-hines/coloring-app-aws"
	"github.com/jeana-hines/coloring-app-aws/store"
	"github.com/jeana-hines/coloring-app-aws/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌─┐┬  ┌─┐┬─┐┬┌┐┌┌─┐
│  │ ││  │ │├┬┘│││││ ┬
└─┘└─┘┴─┘└─┘┴└─┴┘└┘└─┘

Layered digital coloring book.
    Version: %s

`

// pipeName is the file name that indicates stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	configPath = flag.String("config", "", "TOML configuration file")
	catalog    = flag.String("catalog", "", "Artwork list, URL or file (default image_list.txt in the working directory)")
	base       = flag.String("base", "", "Artwork location, URL prefix or directory (default images/coloring/ in the working directory)")
	storeDir   = flag.String("store", "", "Progress directory (overrides the configuration)")
	artwork    = flag.String("art", "", "Artwork to open")
	output     = flag.String("out", "", "Export the artwork headlessly to this file, or - for stdout")
	exportDir  = flag.String("exports", ".", "Directory the artworks exported from the window are saved in")
	serve      = flag.String("serve", "", "Serve the catalog endpoint on this address")
	serveDir   = flag.String("dir", ".", "Directory listed by the catalog endpoint")
	watch      = flag.Bool("watch", false, "Reload the line art when its file changes")
	list       = flag.Bool("list", false, "Print the artwork catalog and exit")
	debug      = flag.Bool("debug", false, "Verbose logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		fatal("Unable to load the configuration: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve != "" {
		mux := http.NewServeMux()
		mux.Handle(coloring.CatalogRoute, coloring.CatalogHandler(*serveDir, logger))
		srv := &http.Server{Addr: *serve, Handler: mux}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		logger.Info("serving the catalog", "addr", *serve, "route", coloring.CatalogRoute, "dir", *serveDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Catalog server failed: %v\n", err)
		}
		return
	}

	artworks, err := coloring.ListArtworks(ctx, cfg.Catalog, http.DefaultClient)
	if err != nil {
		if *list {
			fatal("Unable to read the artwork catalog: %v\n", err)
		}
		logger.Warn("could not read the artwork catalog", "catalog", cfg.Catalog, "error", err)
	}

	if *list {
		for _, id := range artworks {
			fmt.Printf("%s\t%s\n", id, coloring.DisplayLabel(id))
		}
		return
	}

	dir, err := cfg.StorePath()
	if err != nil {
		fatal("Invalid progress directory: %v\n", err)
	}
	st, err := store.NewDir(dir)
	if err != nil {
		fatal("Unable to open the progress directory: %v\n", err)
	}
	progress := coloring.NewProgress(st, logger)
	defer progress.Close()

	loader := coloring.ResourceLoader{Base: cfg.Base, Client: http.DefaultClient}
	session, err := coloring.NewSession(cfg.SessionOptions(loader, progress, logger))
	if err != nil {
		fatal("Unable to start the session: %v\n", err)
	}
	defer session.Close()

	if *output != "" {
		now := time.Now()
		if err := export(ctx, session, *output); err != nil {
			fatal("Error exporting the artwork: %v\n", err)
		}
		if *output != pipeName {
			fmt.Fprintf(os.Stderr, "\nThe artwork has been saved as: %s\n",
				utils.DecorateText(filepath.Base(*output), utils.SuccessMessage))
		}
		fmt.Fprintf(os.Stderr, "Execution time: %s\n",
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
		return
	}

	if *artwork != "" {
		session.Select(ctx, *artwork)
	}
	if *watch {
		if utils.IsValidUrl(cfg.Base) {
			logger.Warn("line art watching needs a local base directory", "base", cfg.Base)
		} else {
			go func() {
				if err := coloring.WatchLineArt(ctx, session, cfg.Base); err != nil {
					logger.Error("line art watcher stopped", "error", err)
				}
			}()
		}
	}

	go func() {
		gui := coloring.NewGUI(ctx, session, artworks, *exportDir, logger)
		if err := gui.Run(); err != nil {
			logger.Error("window closed with an error", "error", err)
		}
		session.Close()
		progress.Close()
		os.Exit(0)
	}()
	app.Main()
}

// loadConfig reads the configuration file, if any, and applies the flag overrides.
func loadConfig() (coloring.Config, error) {
	cfg := coloring.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = coloring.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}
	if *catalog != "" {
		cfg.Catalog = *catalog
	}
	if *base != "" {
		cfg.Base = *base
	}
	if *storeDir != "" {
		cfg.Store = *storeDir
	}
	return cfg.Normalize()
}

// export loads the selected artwork together with its saved progress and
// writes the flattened result to out.
func export(ctx context.Context, s *coloring.Session, out string) error {
	if *artwork == "" {
		return errors.New("the -art flag is required for exporting")
	}

	var (
		format coloring.Format
		dst    io.Writer
		err    error
	)
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		format, dst = coloring.FormatPNG, os.Stdout
	} else {
		if format, err = coloring.FormatFromExt(out); err != nil {
			return err
		}
		f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("unable to create the destination file: %w", err)
		}
		defer f.Close()
		dst = f
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("🖍 COLORING", utils.StatusMessage),
		utils.DecorateText("is exporting the artwork...", utils.DefaultMessage))
	spinner := utils.NewSpinner(os.Stderr, spinnerText, time.Millisecond*200, true)

	// Restore the cursor visibility when interrupted.
	go func() {
		<-ctx.Done()
		spinner.RestoreCursor()
	}()

	spinner.Start()
	s.Select(ctx, *artwork)
	s.Wait()
	if st := s.State(); st != coloring.Ready {
		spinner.Stop()
		return fmt.Errorf("artwork %q is %s", *artwork, st)
	}
	err = s.Export(dst, format)

	spinner.StopMsg = fmt.Sprintf("%s %s",
		utils.DecorateText("🖍 COLORING", utils.StatusMessage),
		utils.DecorateText("is exporting the artwork... ✔", utils.DefaultMessage))
	spinner.Stop()

	return err
}

func fatal(format string, err error) {
	log.Fatalf(
		utils.DecorateText(format, utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
}
