package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/repute/pkg/config"
	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/pacing"
	"github.com/matzehuels/repute/pkg/report"
	"github.com/matzehuels/repute/pkg/requirements"
	"github.com/matzehuels/repute/pkg/sources/github"
	"github.com/matzehuels/repute/pkg/sources/pypi"
	"github.com/matzehuels/repute/pkg/sources/pypistats"
	"github.com/matzehuels/repute/pkg/store"
)

// reportOpts holds the command-line flags for the report command.
type reportOpts struct {
	output     string // CSV output path
	table      bool   // also print an aligned table to stdout
	refresh    bool   // bypass cached records
	noCache    bool   // disable the record store entirely
	configPath string // config file override
}

// reportCommand creates the report command, the main repute pipeline.
func (c *CLI) reportCommand() *cobra.Command {
	opts := reportOpts{output: "repute.csv"}

	cmd := &cobra.Command{
		Use:   "report <requirements.txt>",
		Short: "Generate a reputation report for pinned dependencies",
		Long: `Generate a reputation report for every package pinned in a requirements file.

Release metadata comes from PyPI, popularity metrics from GitHub (for
packages that list a GitHub repository), and download counts from
pypistats.org. Raw responses are cached per source, so re-runs only hit
the network for records older than the staleness window.

Examples:
  repute report requirements.txt
  repute report requirements.txt --output deps.csv --table
  repute report requirements.txt --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "CSV output path")
	cmd.Flags().BoolVar(&opts.table, "table", false, "also print the report as a table")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch all records, ignoring cached ones")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the record store")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/repute/config.toml)")

	return cmd
}

// source bundles everything one data source needs for a batch run.
type source struct {
	runner *fetch.Runner
	cfg    config.Source
}

// newSource wires a source's store, limiter and orchestrator from the
// configuration. File-backed stores share their directory with the
// limiter's persisted last-request state.
func (c *CLI) newSource(cfg *config.Config, opts reportOpts, cacheRoot, name string, logger *log.Logger) (*source, error) {
	src := cfg.Source(name)
	dir := filepath.Join(cacheRoot, name)

	st, err := newSourceStore(cfg, opts.noCache, name, dir)
	if err != nil {
		return nil, err
	}

	stateDir := ""
	if _, ok := st.(*store.FileStore); ok {
		stateDir = dir
	}
	limiter := pacing.NewLimiter(src.MaxRequestsPerSecond, stateDir)

	orch := fetch.NewOrchestrator(st, limiter, src.Window())
	orch.Refresh = opts.refresh

	return &source{
		runner: fetch.NewRunner(name, orch, logger),
		cfg:    src,
	}, nil
}

// runReport executes the full pipeline: parse the requirements file, fetch
// pinned and latest PyPI records, then GitHub and pypistats concurrently
// (each source internally sequential), join everything and render.
func (c *CLI) runReport(ctx context.Context, path string, opts reportOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	items, err := requirements.Parse(path)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("%s: no pinned packages found", path)
	}

	cacheRoot := cfg.CacheDir
	if cacheRoot == "" {
		if cacheRoot, err = cacheDir(); err != nil {
			return err
		}
	}

	logger := c.Logger.With("run", uuid.NewString()[:8])
	p := newProgress(logger)

	pypiSrc, err := c.newSource(cfg, opts, cacheRoot, config.SourcePyPI, logger)
	if err != nil {
		return err
	}
	githubSrc, err := c.newSource(cfg, opts, cacheRoot, config.SourceGitHub, logger)
	if err != nil {
		return err
	}
	statsSrc, err := c.newSource(cfg, opts, cacheRoot, config.SourcePyPIStats, logger)
	if err != nil {
		return err
	}

	spin := newSpinner(ctx, fmt.Sprintf("Fetching metadata for %d packages...", len(items)))
	spin.Start()
	rep, err := c.gather(ctx, items, pypiSrc, githubSrc, statsSrc)
	spin.Stop()
	if err != nil {
		printError("%v", err)
		return err
	}

	if err := report.ExportCSV(rep, opts.output); err != nil {
		return err
	}

	p.done(fmt.Sprintf("Report for %d packages", len(items)))
	printSuccess("Saved report")
	printFile(opts.output)

	if opts.table {
		if err := report.RenderTable(rep, os.Stdout); err != nil {
			return err
		}
	}

	if skips := rep.Skips; len(skips) > 0 {
		printWarning("%d items skipped", len(skips))
		for _, s := range skips {
			printDetail("%s [%s]: %s", s.Item, s.Source, s.Reason)
		}
	}
	return nil
}

// gather runs the per-source batches. PyPI comes first because GitHub
// repository URLs are inferred from its records; GitHub and pypistats then
// run concurrently, each as its own ordered sequence.
func (c *CLI) gather(ctx context.Context, items []fetch.Item, pypiSrc, githubSrc, statsSrc *source) (*report.Report, error) {
	pypiClient := pypi.NewClient()
	githubClient := github.NewClient(githubSrc.cfg.ResolveToken())
	statsClient := pypistats.NewClient()

	pinned, err := pypiSrc.runner.Run(ctx, items, pypiClient.Fetch)
	if err != nil {
		return nil, err
	}

	latestItems := make([]fetch.Item, len(items))
	for i, item := range items {
		latestItems[i] = fetch.Item{Name: item.Name, Version: fetch.VersionLatest}
	}
	latest, err := pypiSrc.runner.Run(ctx, latestItems, pypiClient.Fetch)
	if err != nil {
		return nil, err
	}

	ghItems, repoRefs, noRepo := inferRepos(items, pinned)
	ghFetch := func(ctx context.Context, item fetch.Item) (*store.Record, error) {
		ref := repoRefs[item]
		return githubClient.Fetch(ctx, ref.owner, ref.repo)
	}

	statsItems := make([]fetch.Item, len(items))
	for i, item := range items {
		statsItems[i] = fetch.Item{Name: item.Name}
	}

	var ghResult, statsResult *fetch.BatchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ghResult, err = githubSrc.runner.Run(gctx, ghItems, ghFetch)
		return err
	})
	g.Go(func() error {
		var err error
		statsResult, err = statsSrc.runner.Run(gctx, statsItems, statsClient.Fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := report.Build(report.Input{
		Items:  items,
		Pinned: pinned,
		Latest: latest,
		GitHub: ghResult,
		Stats:  statsResult,
		Now:    time.Now(),
	})
	for _, item := range noRepo {
		rep.AddSkip(item, config.SourceGitHub, "no recognizable github repository url")
	}
	return rep, nil
}

type repoRef struct {
	owner string
	repo  string
}

// inferRepos extracts GitHub owner/repo pairs from the pinned PyPI records.
// Packages without a recognizable GitHub URL are returned separately so the
// report can list them as skipped for the github source; a malformed or
// missing URL is an ordinary per-item condition, not an input error.
func inferRepos(items []fetch.Item, pinned *fetch.BatchResult) ([]fetch.Item, map[fetch.Item]repoRef, []fetch.Item) {
	var ghItems []fetch.Item
	var noRepo []fetch.Item
	refs := make(map[fetch.Item]repoRef)

	for _, item := range items {
		rec := pinned.Record(item)
		if rec == nil {
			continue // already recorded as a pypi failure
		}
		rel, err := pypi.Extract(item, rec)
		if err != nil {
			continue // surfaced as an extraction skip during the join
		}
		owner, repo, ok := github.ExtractURL(rel.ProjectURLs, rel.HomePage)
		if !ok {
			noRepo = append(noRepo, item)
			continue
		}
		ghItems = append(ghItems, item)
		refs[item] = repoRef{owner: owner, repo: repo}
	}
	return ghItems, refs, noRepo
}
