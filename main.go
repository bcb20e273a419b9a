// Package main provides the entry point for the herald CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/tts"
	"github.com/ityeti/herald/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voiceName  string
	rate       int
	headless   bool
	debug      bool
	silent     bool

	rootCmd = &cobra.Command{
		Use:   "herald",
		Short: "Read selected text and screen regions aloud",
		Long: paragraph(
			fmt.Sprintf("\nRead selected text and screen regions %s, one line at a time.", keyword("aloud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// expandPath expands ~ and environment variables in path.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return p
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style = expandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	debug = viper.GetBool("debug")
	headless = viper.GetBool("headless")
	silent = viper.GetBool("silent")

	// The TUI needs a terminal on both ends.
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		headless = true
	}

	if err := setupLog(headless && cmd == rootCmd); err != nil {
		return err
	}

	if cmd.Flags().Changed("engine") {
		if _, err := tts.ParseKind(engineName); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("voice") {
		if _, ok := tts.LookupVoice(voiceName); !ok {
			return fmt.Errorf("%w: %q (see herald voices)", tts.ErrUnknownVoice, voiceName)
		}
	}
	if cmd.Flags().Changed("rate") && rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", rate)
	}
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeEngines, err := newEngines()
	if err != nil {
		return err
	}
	defer closeEngines()

	var notifier app.Notifier = app.LogNotifier{}
	var tuiNotifier *ui.Notifier
	if !headless {
		tuiNotifier = &ui.Notifier{}
		notifier = tuiNotifier
	}

	session, err := newSession(cmd, eng, notifier, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("Session did not close cleanly", "err", err)
		}
	}()

	if headless {
		return runHeadless(ctx, session)
	}
	return runTUI(ctx, session, tuiNotifier)
}

func runTUI(ctx context.Context, session *app.Session, notifier *ui.Notifier) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		log.Warn("Ignoring glamour style", "style", cfg.GlamourStyle, "err", err)
		cfg.GlamourStyle = styles.AutoStyle
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 120 {
		cfg.GlamourMaxWidth = 120
	}

	p := ui.NewProgram(cfg, session)
	notifier.Attach(p)

	go func() {
		if err := session.Run(ctx); err != nil {
			log.Error("Session stopped", "err", err)
		}
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	session.Quit()
	return nil
}

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// A .env next to the binary's working directory may carry HERALD_*
	// settings; it is optional.
	_ = godotenv.Load()

	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "", "speech engine (edge or local)")
	rootCmd.PersistentFlags().StringVar(&voiceName, "voice", "", "voice name (see herald voices)")
	rootCmd.PersistentFlags().IntVarP(&rate, "rate", "r", 0, "speech rate in words per minute")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "play nothing; useful for testing")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without the terminal UI, reading commands from stdin")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("silent", rootCmd.PersistentFlags().Lookup("silent"))
	_ = viper.BindPFlag("headless", rootCmd.Flags().Lookup("headless"))

	viper.SetDefault("debug", false)
	viper.SetDefault("headless", false)
	viper.SetDefault("silent", false)
	viper.SetDefault("helpers.picker", "herald-select")
	viper.SetDefault("helpers.border", "herald-border")
	viper.SetDefault("helpers.ocr", "tesseract")
	viper.SetDefault("helpers.ocr_language", "eng")
	viper.SetDefault("engines.edge.binary", "edge-tts")
	viper.SetDefault("engines.edge.requests_per_minute", 120)
	viper.SetDefault("engines.local.binary", "")
	viper.SetDefault("region.poll_interval", "2.5s")
	viper.SetDefault("region.change_threshold", 0.5)
	viper.SetDefault("region.min_text_length", 3)
	viper.SetDefault("prefetch.capacity", 10)
	viper.SetDefault("audio.dir", "")

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd, sayCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "herald")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "herald")}, dirs...)
	}

	if c := os.Getenv("HERALD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("herald")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("herald")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "herald.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
