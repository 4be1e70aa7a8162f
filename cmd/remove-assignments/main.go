package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secureflag-tools/internal/catalog"
	"secureflag-tools/internal/config"
	"secureflag-tools/internal/domain"
	"secureflag-tools/internal/logging"
	"secureflag-tools/internal/removal"
	"secureflag-tools/internal/resolve"
	"secureflag-tools/internal/secureflag"
)

const banner = "=== SecureFlag Assignment Removal Script ==="

type options struct {
	csvPath    string
	catalogDir string
	dryRun     bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "remove-assignments",
		Short: "Remove assigned labs and learning paths listed in a CSV",
		Long: `Resolves every row of the input CSV (User, Activity, Technology, Type, optional UUID)
against the current learning path and lab catalogs, then removes the activities per user.

Nothing is removed unless every row resolves cleanly.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.String("token", "", "API token for authentication")
	f.String("base-url", "", "management API base URL (env SECUREFLAG_BASE_URL)")
	f.StringVar(&opts.csvPath, "csv", "", "input CSV file (lowercase .csv only)")
	f.StringVar(&opts.catalogDir, "catalog-dir", ".", "directory for the fetched catalog snapshots")
	f.BoolVar(&opts.dryRun, "dry-run", false, "show what would be done without removal calls")
	f.BoolVar(&opts.verbose, "verbose", false, "enable verbose debug output")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	resolvedPath, err := resolve.ResolvedPath(opts.csvPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintln(out, banner)

	client := secureflag.New(cfg.BaseURL, cfg.Token)

	paths, labs, err := fetchCatalogs(ctx, client, opts.catalogDir, logger)
	if err != nil {
		return err
	}

	rows, err := readInput(opts.csvPath)
	if err != nil {
		return err
	}

	resolver := resolve.Resolver{Paths: paths, Labs: labs, Log: logger}
	resolved, rowErrs := resolver.Resolve(rows)
	if len(rowErrs) > 0 {
		printPreflight(cmd.ErrOrStderr(), rowErrs)
		return fmt.Errorf("preflight validation failed: %d row error(s)", len(rowErrs))
	}

	if err := writeResolved(resolvedPath, resolved); err != nil {
		return err
	}
	logger.Info("wrote resolved file", zap.String("path", resolvedPath), zap.Int("rows", len(resolved)))

	if err := dispatch(ctx, client, resolvedPath, opts.dryRun, out, logger); err != nil {
		return err
	}

	fmt.Fprintln(out, "Completed successfully.")
	return nil
}

func fetchCatalogs(ctx context.Context, client *secureflag.Client, dir string, logger *zap.Logger) (*catalog.Catalog, *catalog.Catalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create catalog dir: %w", err)
	}

	lps, err := client.ListLearningPaths(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching Learning Paths: %w", err)
	}
	pathEntries := make([]catalog.Entry, 0, len(lps))
	for _, p := range lps {
		pathEntries = append(pathEntries, catalog.Entry{Name: p.Name, Technology: p.Technology, UUID: p.UUID})
	}

	exercises, err := client.ListExercises(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching Exercises: %w", err)
	}
	labEntries := make([]catalog.Entry, 0, len(exercises))
	for _, e := range exercises {
		labEntries = append(labEntries, catalog.Entry{Name: e.Title, Technology: e.Technology, UUID: e.UUID, Type: e.LabType})
	}

	pathsFile := filepath.Join(dir, catalog.Paths.FileName)
	labsFile := filepath.Join(dir, catalog.Labs.FileName)
	if err := catalog.WriteFile(pathsFile, catalog.Paths, pathEntries); err != nil {
		return nil, nil, err
	}
	if err := catalog.WriteFile(labsFile, catalog.Labs, labEntries); err != nil {
		return nil, nil, err
	}
	logger.Info("fetched catalogs", zap.Int("paths", len(pathEntries)), zap.Int("labs", len(labEntries)))

	paths, err := catalog.LoadFile(pathsFile, catalog.Paths)
	if err != nil {
		return nil, nil, err
	}
	labs, err := catalog.LoadFile(labsFile, catalog.Labs)
	if err != nil {
		return nil, nil, err
	}
	return paths, labs, nil
}

func readInput(path string) ([]domain.AssignmentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return resolve.ReadAssignments(f)
}

func printPreflight(w io.Writer, errs []resolve.RowError) {
	fmt.Fprintln(w, "Preflight validation failed:")
	for _, e := range errs {
		fmt.Fprintf(w, " %s\n", e.Error())
	}
}

func writeResolved(path string, rows []domain.AssignmentRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create resolved file: %w", err)
	}
	if err := resolve.WriteResolved(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write resolved file: %w", err)
	}
	return f.Close()
}

func dispatch(ctx context.Context, client *secureflag.Client, resolvedPath string, dryRun bool, out io.Writer, logger *zap.Logger) error {
	f, err := os.Open(resolvedPath)
	if err != nil {
		return fmt.Errorf("open resolved file: %w", err)
	}
	rows, err := resolve.ReadResolved(f)
	f.Close()
	if err != nil {
		return err
	}

	users, err := removal.Group(rows)
	if err != nil {
		return err
	}

	d := removal.Dispatcher{Client: client, DryRun: dryRun, Out: out, Log: logger}
	return d.Dispatch(ctx, users)
}
