package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/snapdiff/internal/config"
	"github.com/bamsammich/snapdiff/internal/diff"
	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/filter"
	"github.com/bamsammich/snapdiff/internal/snapshot"
	"github.com/bamsammich/snapdiff/internal/stats"
	"github.com/bamsammich/snapdiff/internal/ui"
)

var version = "dev"

// passwordEnv names the variable holding an SSH password for
// non-interactive use.
const passwordEnv = "SNAPDIFF_SSH_PASSWORD"

func main() {
	os.Exit(run())
}

// flags holds every command-line option.
type flags struct {
	ignore          []string
	ignoreFile      string
	workers         int
	sftpConcurrency int
	sftpRate        float64
	sshKeyFile      string
	sshPort         int
	verbose         bool
	quiet           bool
	noColor         bool
	noProgress      bool
	logFile         string
	configFile      string
	showVersion     bool
}

func run() int {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "snapdiff [flags] <source> <destination>",
		Short: "Compare two directory trees, local or over SFTP",
		Long: `snapdiff crawls a source and a destination tree concurrently and reports
what a backup pass would have to transfer and delete.

A root is a local path, an scp-style [user@]host:path, or an
sftp://[user@]host[:port]/path URL.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Fprintf(os.Stdout, "snapdiff %s\n", version)
				return nil
			}
			return compare(cmd, &f, args[0], args[1])
		},
	}

	rootCmd.Flags().BoolVar(&f.showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		StringArrayVarP(&f.ignore, "ignore", "x", nil, "ignore entries named NAME at any depth (repeatable, globs allowed)")
	rootCmd.Flags().StringVar(&f.ignoreFile, "ignore-file", "", "read ignored names from FILE, one per line")
	rootCmd.Flags().
		IntVarP(&f.workers, "workers", "n", 0, "local crawl workers (default: min(NumCPU, 8))")
	rootCmd.Flags().
		IntVar(&f.sftpConcurrency, "sftp-concurrency", driver.DefaultSFTPConcurrency, "concurrent SFTP directory listings")
	rootCmd.Flags().
		Float64Var(&f.sftpRate, "sftp-rate", 0, "max SFTP directory listings per second (0 = unlimited)")
	rootCmd.Flags().
		StringVar(&f.sshKeyFile, "ssh-key", "", "SSH private key file (default: auto-detect)")
	rootCmd.Flags().IntVar(&f.sshPort, "ssh-port", driver.DefaultSSHPort, "SSH port")
	rootCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress all output except the report and errors")
	rootCmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored report")
	rootCmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "disable progress display")
	rootCmd.Flags().StringVar(&f.logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.Flags().
		StringVar(&f.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/snapdiff/config.toml)")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

//nolint:revive // cognitive-complexity: top-level command wiring
func compare(cmd *cobra.Command, f *flags, rawSrc, rawDst string) error {
	cfg, err := loadConfig(f.configFile)
	if err != nil {
		return err
	}
	applyConfigDefaults(cmd, cfg.Defaults, f)

	// Configure logging.
	logLevel := slog.LevelWarn
	if f.verbose {
		logLevel = slog.LevelDebug
	} else if !f.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if f.logFile != "" {
		lf, lfErr := os.Create(f.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ignore, err := buildIgnoreSet(f.ignore, f.ignoreFile)
	if err != nil {
		return err
	}

	src, err := openSide(driver.ParseLocation(rawSrc), f, logger)
	if err != nil {
		return fmt.Errorf("source %s: %w", rawSrc, err)
	}
	defer src.close()

	dst, err := openSide(driver.ParseLocation(rawDst), f, logger)
	if err != nil {
		return fmt.Errorf("destination %s: %w", rawDst, err)
	}
	defer dst.close()

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	presenter := ui.NewPresenter(ui.Config{
		ErrWriter:  os.Stderr,
		Stats:      collector,
		IsTTY:      ui.IsTTY(os.Stderr.Fd()),
		Width:      ui.TermWidth(os.Stderr.Fd()),
		Quiet:      f.quiet,
		NoProgress: f.noProgress,
	})

	slog.Debug("building snapshots",
		"source", src.driver.ID()+":"+src.root,
		"destination", dst.driver.ID()+":"+dst.root,
		"ignore", ignore.Names(),
		"workers", f.workers,
	)

	// Presenter runs in the background until both crawls finish.
	presenterCtx, presenterDone := context.WithCancel(ctx)
	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterCtx)
	}()

	pair, err := snapshot.BuildPair(ctx,
		snapshot.Source{Driver: src.driver, Root: src.root, Ignore: ignore, Observer: collector.Observer(stats.Source)},
		snapshot.Source{Driver: dst.driver, Root: dst.root, Ignore: ignore, Observer: collector.Observer(stats.Dest)},
		snapshot.PairOptions{Logger: logger},
	)
	presenterDone()
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}

	if err != nil {
		writeSnapshotError(os.Stderr, err)
		slog.Debug("snapshot failed", "error", err)
		return &exitError{code: 1}
	}

	if !f.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	started := time.Now()
	d := diff.Build(pair.Source, pair.Dest)
	d.Sort()
	categorized := diff.Categorize(d)
	slog.Debug("differences computed", "changes", d.Len(), "elapsed", time.Since(started))

	return ui.RenderReport(os.Stdout, categorized, ui.ReportOptions{
		Theme: ui.DefaultTheme().Apply(cfg.Theme),
		Color: ui.ColorEnabled(os.Stdout.Fd(), f.noColor),
	})
}

// loadConfig reads an explicit config file, or the optional default one.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFile(expandHome(path))
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
		return config.Config{}, nil
	}
	return cfg, nil
}

func buildIgnoreSet(names []string, file string) (*filter.IgnoreSet, error) {
	ignore, err := filter.NewIgnoreSet(names...)
	if err != nil {
		return nil, fmt.Errorf("invalid --ignore: %w", err)
	}
	if file != "" {
		if err := ignore.LoadFile(expandHome(file)); err != nil {
			return nil, fmt.Errorf("load ignore file: %w", err)
		}
	}
	return ignore, nil
}

// side is one opened root.
type side struct {
	driver driver.Driver
	root   string
	close  func() error
}

func openSide(loc driver.Location, f *flags, logger *slog.Logger) (side, error) {
	if !loc.IsRemote() {
		d := driver.NewLocalDriver(f.workers)
		d.Logger = logger
		return side{driver: d, root: loc.Path, close: func() error { return nil }}, nil
	}

	d, err := driver.DialSFTP(loc, driver.SSHOpts{
		Port:     f.sshPort,
		KeyFile:  expandHome(f.sshKeyFile),
		Password: os.Getenv(passwordEnv),
		Timeout:  30 * time.Second,
	})
	if err != nil {
		return side{}, err
	}
	d.MaxConcurrency = f.sftpConcurrency
	d.Limiter = driver.NewListingLimiter(f.sftpRate)
	d.Logger = logger

	root := loc.Path
	if root == "" {
		root = "."
	}
	return side{driver: d, root: root, close: d.Close}, nil
}

// writeSnapshotError prints each failed side with its nested detail
// indented below it.
func writeSnapshotError(w io.Writer, err error) {
	var perr *snapshot.PairError
	if !errors.As(err, &perr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	var blocks []string
	if perr.Source != nil {
		blocks = append(blocks, "Source snapshot failed:\n"+indent(perr.Source.Error()))
	}
	if perr.Dest != nil {
		blocks = append(blocks, "Destination snapshot failed:\n"+indent(perr.Dest.Error()))
	}
	fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, f *flags) {
	changed := cmd.Flags().Changed
	if !changed("ignore") && defaults.Ignore != nil {
		f.ignore = defaults.Ignore
	}
	if !changed("ignore-file") && defaults.IgnoreFile != nil {
		f.ignoreFile = *defaults.IgnoreFile
	}
	if !changed("workers") && defaults.Workers != nil {
		f.workers = *defaults.Workers
	}
	if !changed("sftp-concurrency") && defaults.SFTPConcurrency != nil {
		f.sftpConcurrency = *defaults.SFTPConcurrency
	}
	if !changed("sftp-rate") && defaults.SFTPRate != nil {
		f.sftpRate = *defaults.SFTPRate
	}
	if !changed("ssh-key") && defaults.SSHKey != nil {
		f.sshKeyFile = *defaults.SSHKey
	}
	if !changed("ssh-port") && defaults.SSHPort != nil {
		f.sshPort = *defaults.SSHPort
	}
	if !changed("no-progress") && defaults.Progress != nil {
		f.noProgress = !*defaults.Progress
	}
	if !changed("no-color") && defaults.Color != nil {
		f.noColor = !*defaults.Color
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
