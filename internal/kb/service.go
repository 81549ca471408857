// Package kb implements the knowledge-base export pipeline: it pulls the
// complete article tree from the remote API and materializes it as a tree
// of markdown documents with attachments on a Destination.
package kb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"kbdump/internal/model"
)

// DefaultMaxDepth bounds the article tree walk. The remote system is not
// supposed to produce trees anywhere near this deep; the cap exists so
// cyclic or corrupted parent/child data cannot run away.
const DefaultMaxDepth = 64

// Exporter is the orchestration layer that coordinates the API client,
// the markdown renderer, and the destination to perform one export run.
// Execution is strictly sequential: one API call and one write at a time.
type Exporter struct {
	client   Client
	dest     Destination
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	maxDepth int
}

// NewExporter creates an Exporter with the provided dependencies.
// maxDepth bounds the tree walk; values <= 0 select DefaultMaxDepth.
func NewExporter(client Client, dest Destination, logger Logger, clock Clock, idgen IDGenerator, maxDepth int) *Exporter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Exporter{
		client:   client,
		dest:     dest,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		maxDepth: maxDepth,
	}
}

// Run performs a complete export: connectivity check, full article
// listing, then one depth-first walk per root article, grouped by project.
// The returned Summary is non-nil even on failure, so callers can record
// how far the run got. A non-nil error means the run aborted (bad auth or
// a failed connectivity check); all per-article trouble is contained and
// only counted.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		RunID:     e.idgen.New(),
		StartedAt: e.clock.Now(),
	}
	defer func() { sum.FinishedAt = e.clock.Now() }()

	// Verify connectivity and auth before touching the destination.
	me, err := e.client.Me(ctx)
	if err != nil {
		return sum, fmt.Errorf("connectivity check: %w", err)
	}
	if me == nil {
		return sum, errors.New("connectivity check: current-user endpoint returned no identity")
	}
	e.logger.Info("authenticated", "user", me.Name, "run", sum.RunID)

	articles, err := e.client.ListArticles(ctx)
	if err != nil {
		return sum, fmt.Errorf("listing articles: %w", err)
	}
	e.logger.Info("article listing complete", "total", len(articles))

	// Only root articles are exported at top level; everything else is
	// reached through recursion from its root.
	groups := groupRootsByProject(articles)

	projects := make([]string, 0, len(groups))
	for name := range groups {
		projects = append(projects, name)
	}
	sort.Strings(projects)
	sum.Projects = len(projects)

	for _, project := range projects {
		if err := e.dest.EnsureDir(project); err != nil {
			e.warn(sum, "skipping project: cannot create directory",
				"project", project, "error", err)
			continue
		}
		e.logger.Info("exporting project", "project", project, "roots", len(groups[project]))
		for _, root := range groups[project] {
			if err := e.exportTree(ctx, root, project, sum); err != nil {
				return sum, err
			}
		}
	}

	sum.FinishedAt = e.clock.Now()
	e.logSummary(sum)
	return sum, nil
}

// groupRootsByProject partitions the listing into root-article references
// grouped by project short code. Articles with a parent are discarded
// here; articles without a project land in the "Unknown" group. Within a
// group, API response order is preserved.
func groupRootsByProject(articles []model.Article) map[string][]model.ArticleRef {
	groups := make(map[string][]model.ArticleRef)
	for _, a := range articles {
		if !a.IsRoot() {
			continue
		}
		project := a.ProjectShortName()
		if project == "" {
			project = unknownValue
		}
		groups[project] = append(groups[project], model.ArticleRef{
			ID:         a.ID,
			IDReadable: a.IDReadable,
			Summary:    a.Summary,
		})
	}
	return groups
}

func (e *Exporter) logSummary(sum *Summary) {
	e.logger.Info("export complete",
		"run", sum.RunID,
		"projects", sum.Projects,
		"articles", sum.ArticlesExported,
		"skipped", sum.ArticlesSkipped,
		"attachments", sum.AttachmentsDownloaded,
		"attachment_failures", sum.AttachmentsFailed,
		"warnings", sum.Warnings,
		"duration", sum.Duration().String(),
	)
}

// warn logs a warning and counts it in the run summary.
func (e *Exporter) warn(sum *Summary, msg string, args ...any) {
	sum.Warnings++
	e.logger.Warn(msg, args...)
}
