package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kbdump/internal/api"
	"kbdump/internal/app"
	"kbdump/internal/config"
	"kbdump/internal/database"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagConfig  string
	flagBaseURL string
	flagToken   string
	flagOut     string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kbdump",
	Short: "Export a knowledge base to a markdown tree",
	Long: `kbdump exports the article tree of a knowledge base, one directory per
article named by its readable id, with a rendered README.md, downloaded
attachments, and a run log alongside the tree.`,
	SilenceUsage: true,
}

// loadConfig reads the config file, falling back to built-in defaults when
// no file exists yet. Flags override the file.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		defaults, err := app.GetDefaults()
		if err != nil {
			return nil, fmt.Errorf("getting defaults: %w", err)
		}
		path = defaults["config_path"]
	}

	cfg, err := config.ReadFromFile(path)
	if err != nil {
		if !os.IsNotExist(unwrapPathError(err)) {
			return nil, err
		}
		defaults, derr := app.GetDefaults()
		if derr != nil {
			return nil, fmt.Errorf("getting defaults: %w", derr)
		}
		cfg = config.NewConfig("", defaults["base_dir"])
	}

	if flagBaseURL != "" {
		cfg.BaseURL = strings.TrimRight(flagBaseURL, "/")
	}
	return cfg, nil
}

// unwrapPathError digs the os error out of the config wrapper so a missing
// file is distinguishable from a malformed one.
func unwrapPathError(err error) error {
	for e := err; e != nil; {
		if pe, ok := e.(*os.PathError); ok {
			return pe
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return err
}

// resolveToken returns the bearer token: --token flag first, then the
// configured environment variable, then an interactive no-echo prompt.
func resolveToken(cfg *config.Config) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	if v := os.Getenv(cfg.Auth.TokenEnv); v != "" {
		return v, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no token: pass --token or set %s", cfg.Auth.TokenEnv)
	}

	fmt.Fprint(os.Stderr, "Permanent token (perm:...): ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full article tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token, err := resolveToken(cfg)
		if err != nil {
			return err
		}

		outputDir := flagOut
		if outputDir == "" {
			outputDir = cfg.Export.Dir
		}
		if cfg.Destination.Type == "filesystem" {
			if outputDir == "" {
				return fmt.Errorf("no output directory: pass --out or set export.dir")
			}
			if outputDir, err = filepath.Abs(outputDir); err != nil {
				return fmt.Errorf("resolving output directory: %w", err)
			}
		}

		ctx := context.Background()
		a, err := app.NewExportApp(ctx, cfg, token, outputDir, flagVerbose)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.Export(ctx)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d article(s) across %d project(s), %d attachment(s)\n",
			sum.ArticlesExported, sum.Projects, sum.AttachmentsDownloaded)
		if sum.Warnings > 0 {
			fmt.Printf("%d warning(s), see %s\n", sum.Warnings, a.LogPath())
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity and authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.BaseURL == "" {
			return fmt.Errorf("base URL is required (set base_url in the config or pass --base-url)")
		}

		token, err := resolveToken(cfg)
		if err != nil {
			return err
		}

		client, err := api.New(api.Options{
			BaseURL: cfg.BaseURL,
			Token:   token,
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}

		me, err := client.Me(context.Background())
		if err != nil {
			return fmt.Errorf("connectivity check failed: %w", err)
		}
		if me == nil {
			return fmt.Errorf("connectivity check failed: no identity returned")
		}

		fmt.Printf("Authenticated as %s (%s)\n", me.Name, me.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View export run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.NewDatabaseFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer db.Close()

		runs, err := db.ListExportRuns(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No export runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt.Valid {
				d := run.FinishedAt.Time.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-9s  %d article(s)  %d attachment(s)  %d warning(s)  %s\n",
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				run.ArticlesExported,
				run.AttachmentsDownloaded,
				run.Warnings,
				duration,
			)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		path := flagConfig
		if path == "" {
			path = defaults["config_path"]
		}

		cfg := config.NewConfig(strings.TrimRight(flagBaseURL, "/"), defaults["base_dir"])
		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Base URL:   %s\n", cfg.BaseURL)
		fmt.Printf("Export Dir: %s\n", cfg.Export.Dir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Base URL:    %s\n", cfg.BaseURL)
		fmt.Printf("Export Dir:  %s\n", cfg.Export.Dir)
		fmt.Printf("Destination: %s\n", cfg.Destination.Type)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Token Env:   %s\n", cfg.Auth.TokenEnv)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API root URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (overrides env and prompt)")

	exportCmd.Flags().StringVar(&flagOut, "out", "", "Output directory (overrides export.dir)")
	exportCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log per-attachment detail")

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
