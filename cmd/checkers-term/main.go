// checkers-term is a hot-seat checkers board for the terminal. Finished games
// are archived to a local badger store.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
	svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/termcfg"
	"github.com/park285/Cheese-Checkers-bot/internal/tui"
)

var (
	flagConfig    = flag.String("config", "", "Path to a term.json config file")
	flagDark      = flag.String("dark", "", "Dark player name")
	flagLight     = flag.String("light", "", "Light player name")
	flagFlip      = flag.Bool("flip", false, "Draw the board from Light's side")
	flagNoArchive = flag.Bool("no-archive", false, "Do not store finished games")
	flagArchive   = flag.String("archive", "", "Archive directory (default: XDG data dir)")
	flagSave      = flag.Bool("save-config", false, "Write the effective config and exit")
)

func main() {
	flag.Parse()

	// the terminal belongs to tview; logs go to files only
	opts := obslog.OptionsFromEnv()
	opts.Console = false
	if opts.File != "" && os.Getenv("LOG_FILE") == "" {
		if path, err := xdg.CacheFile("cheese-checkers/term.log"); err == nil {
			opts.File = path
		}
	}
	if err := obslog.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
	}
	defer obslog.Sync()
	logger := obslog.Named("term")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *flagSave {
		if err := cfg.Save(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var archive tui.Archive
	if !*flagNoArchive {
		dir, err := cfg.Archive()
		if err != nil {
			fmt.Fprintf(os.Stderr, "archive dir: %v\n", err)
			os.Exit(1)
		}
		// badger holds a directory lock; a second board on the same
		// archive plays without one
		if repo, err := svccheckers.OpenBadgerRepository(dir); err != nil {
			logger.Warn("archive_unavailable", zap.String("dir", dir), zap.Error(err))
		} else {
			defer repo.Close()
			archive = repo
			logger.Info("archive_opened", zap.String("dir", dir))
		}
	}

	app := tview.NewApplication()
	pages := tview.NewPages()
	pages.SetBorder(true).SetTitle(fmt.Sprintf(" ⛀ %s vs %s ", cfg.DarkName, cfg.LightName))

	hint := tview.NewTextView()
	hint.SetBorder(true)
	hint.SetBorderPadding(0, 0, 1, 1)
	hint.SetTitle(" Status ")
	hint.SetTitleAlign(tview.AlignLeft)

	board := tui.NewBoard(app, cfg, hint, archive)
	history := tui.NewHistory(archive, func() { pages.SwitchToPage("game") })

	board.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				app.Stop()
				return nil
			case 'H':
				if err := history.Reload(); err != nil {
					logger.Warn("history_reload", zap.Error(err))
				}
				pages.SwitchToPage("history")
				return nil
			}
		}
		return board.HandleKey(event)
	})

	pages.AddPage("game", tui.GameLayout(board, hint), true, true)
	pages.AddPage("history", history.Flex, true, false)

	if err := app.SetRoot(pages, true).EnableMouse(false).Run(); err != nil {
		logger.Error("app_exit", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*termcfg.Config, error) {
	var (
		cfg *termcfg.Config
		err error
	)
	if *flagConfig != "" {
		cfg, err = termcfg.LoadFile(*flagConfig)
	} else {
		cfg, err = termcfg.Load()
	}
	if err != nil {
		return nil, err
	}
	if *flagDark != "" {
		cfg.DarkName = *flagDark
	}
	if *flagLight != "" {
		cfg.LightName = *flagLight
	}
	if *flagFlip {
		cfg.Flip = true
	}
	if *flagArchive != "" {
		cfg.ArchiveDir = *flagArchive
	}
	return cfg, cfg.Validate()
}
