// Package ingest drives a full ingestion run: scan the video directory,
// select the metadata documents for the observed collections, insert video
// reference tags, and rewrite the documents.
//
// A run holds a file lock in the data directory so concurrent invocations
// cannot interleave document rewrites. There is no rollback: a failure
// partway through leaves the documents written so far updated.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"anthingest/internal/anthology"
	"anthingest/internal/catalog"
	"anthingest/internal/config"
	"anthingest/internal/ledger"
	"anthingest/internal/scanner"
)

// ErrLocked reports that another ingest run holds the data directory lock.
var ErrLocked = errors.New("data directory is locked by another ingest run")

const lockFileName = ".anthingest.lock"

// Options configures a single run.
type Options struct {
	VideoDir       string
	DataDir        string
	OnMissingPaper string
	SkipExisting   bool
	Extensions     []string
	// DryRun locates and reports insertions without writing any document.
	DryRun bool
	// Ledger records the completed run when non-nil and DryRun is off.
	Ledger *ledger.Store
	Logger *slog.Logger
}

// Run executes one ingestion pass and returns its report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Label:     scanner.DisplayTitle(opts.VideoDir),
		VideoDir:  opts.VideoDir,
		StartedAt: time.Now().UTC(),
	}

	inv, err := scanner.Scan(opts.VideoDir, opts.Extensions)
	if err != nil {
		return nil, err
	}
	report.Collections = inv.Collections
	report.SkippedFiles = inv.Skipped
	for _, name := range inv.Skipped {
		logger.Warn("skipping file with unrecognized name", "file", name)
	}
	if inv.Empty() {
		logger.Info("no video files to ingest", "video_dir", opts.VideoDir)
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	store := catalog.NewStore(opts.DataDir)
	selected, err := store.Select(inv.Collections)
	if err != nil {
		return nil, err
	}
	logger.Info("scan complete",
		"collections", inv.Collections,
		"documents", len(selected),
		"singles", len(inv.Singles),
		"multis", len(inv.Multis))

	if !opts.DryRun {
		lock := flock.New(filepath.Join(opts.DataDir, lockFileName))
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire data directory lock: %w", err)
		}
		if !locked {
			return nil, ErrLocked
		}
		defer func() { _ = lock.Unlock() }()
	}

	for _, collection := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ingestCollection(store, collection, inv, opts, report, logger); err != nil {
			return nil, err
		}
	}

	report.FinishedAt = time.Now().UTC()

	if opts.Ledger != nil && !opts.DryRun {
		if err := recordRun(ctx, opts.Ledger, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func ingestCollection(store catalog.Store, collection string, inv scanner.Inventory, opts Options, report *Report, logger *slog.Logger) error {
	doc, err := store.Load(collection)
	if err != nil {
		return err
	}
	report.Documents = append(report.Documents, doc.Path)

	changed := false
	insert := func(anthID, reference string) error {
		id, err := anthology.Deconstruct(anthID)
		if err != nil {
			return err
		}
		inserted, err := doc.InsertVideoTag(id, reference, opts.SkipExisting)
		switch {
		case errors.Is(err, catalog.ErrPaperNotFound):
			if opts.OnMissingPaper == config.OnMissingSkip {
				logger.Warn("paper not found, skipping", "id", anthID, "document", doc.Path)
				report.MissingPapers = append(report.MissingPapers, anthID)
				return nil
			}
			return err
		case err != nil:
			return err
		case !inserted:
			logger.Info("reference already present", "id", anthID, "reference", reference)
			report.AlreadyPresent = append(report.AlreadyPresent, reference)
			return nil
		}
		changed = true
		report.Insertions = append(report.Insertions, ledger.Insertion{
			AnthologyID: anthID,
			Reference:   reference,
			Document:    doc.Path,
		})
		logger.Info("inserted video reference", "id", anthID, "reference", reference, "document", doc.Path)
		return nil
	}

	for _, single := range inv.Singles {
		if !doc.Matches(single.ID) {
			continue
		}
		if err := insert(single.ID, single.Reference()); err != nil {
			return err
		}
	}
	for _, multi := range inv.Multis {
		if !doc.Matches(multi.ID) {
			continue
		}
		if err := insert(multi.ID, multi.Reference()); err != nil {
			return err
		}
	}

	if changed && !opts.DryRun {
		if err := doc.Save(); err != nil {
			return err
		}
		logger.Info("document updated", "document", doc.Path)
	}
	return nil
}

func recordRun(ctx context.Context, store *ledger.Store, report *Report) error {
	run := ledger.Run{
		ID:         report.RunID,
		Label:      report.Label,
		VideoDir:   report.VideoDir,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Inserted:   len(report.Insertions),
		Skipped:    report.SkippedCount(),
	}
	if err := store.RecordRun(ctx, run, report.Insertions); err != nil {
		return fmt.Errorf("record run in ledger: %w", err)
	}
	return nil
}
