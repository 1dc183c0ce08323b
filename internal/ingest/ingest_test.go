package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"anthingest/internal/catalog"
	"anthingest/internal/config"
	"anthingest/internal/ledger"
	"anthingest/internal/xmltree"
)

const n13Doc = `<?xml version="1.0" encoding="UTF-8"?>
<collection id="N13">
  <volume id="13">
    <paper id="1001">
      <title>First Paper</title>
    </paper>
    <paper id="4001">
      <title>Tutorial</title>
    </paper>
  </volume>
</collection>
`

const q13Doc = `<?xml version="1.0" encoding="UTF-8"?>
<collection id="Q13">
  <volume id="13">
    <paper id="1004">
      <title>Journal Paper</title>
    </paper>
  </volume>
</collection>
`

type fixture struct {
	videoDir string
	dataDir  string
}

func newFixture(t *testing.T, videos []string, docs map[string]string) fixture {
	t.Helper()
	f := fixture{
		videoDir: t.TempDir(),
		dataDir:  t.TempDir(),
	}
	for _, name := range videos {
		if err := os.WriteFile(filepath.Join(f.videoDir, name), []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(f.dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f fixture) options() Options {
	return Options{
		VideoDir:       f.videoDir,
		DataDir:        f.dataDir,
		OnMissingPaper: config.OnMissingFail,
	}
}

func videoRefs(t *testing.T, docPath, volume, paper string) []string {
	t.Helper()
	root, err := xmltree.ParseFile(docPath)
	if err != nil {
		t.Fatalf("parse %s: %v", docPath, err)
	}
	paperNode := root.FindChild("volume", "id", volume).FindChild("paper", "id", paper)
	if paperNode == nil {
		t.Fatalf("paper %s/%s not found in %s", volume, paper, docPath)
	}
	var refs []string
	for _, child := range paperNode.ChildElements() {
		if child.Tag == "video" {
			refs = append(refs, child.Attr("href"))
		}
	}
	return refs
}

func TestRunSingleVideo(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})

	report, err := Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Insertions) != 1 {
		t.Fatalf("insertions = %d, want 1", len(report.Insertions))
	}

	docPath := filepath.Join(f.dataDir, "N13.xml")
	refs := videoRefs(t, docPath, "13", "1001")
	if len(refs) != 1 || refs[0] != "N13-1001.mp4" {
		t.Fatalf("refs = %v, want [N13-1001.mp4]", refs)
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("rewritten document missing declaration:\n%s", data)
	}
}

func TestRunMultiVideo(t *testing.T) {
	f := newFixture(t,
		[]string{"N13-4001.2.mp4", "N13-4001.1.mp4"},
		map[string]string{"N13.xml": n13Doc})

	report, err := Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Insertions) != 2 {
		t.Fatalf("insertions = %d, want 2", len(report.Insertions))
	}

	refs := videoRefs(t, filepath.Join(f.dataDir, "N13.xml"), "13", "4001")
	if len(refs) != 2 || refs[0] != "N13-4001.1.mp4" || refs[1] != "N13-4001.2.mp4" {
		t.Fatalf("refs = %v, want sequence order", refs)
	}
}

func TestRerunDuplicatesTags(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})

	for i := 0; i < 2; i++ {
		if _, err := Run(context.Background(), f.options()); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	refs := videoRefs(t, filepath.Join(f.dataDir, "N13.xml"), "13", "1001")
	if len(refs) != 2 {
		t.Fatalf("refs = %v, want duplicate tags after rerun", refs)
	}
}

func TestRerunWithSkipExisting(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})
	opts := f.options()
	opts.SkipExisting = true

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(report.Insertions) != 0 || len(report.AlreadyPresent) != 1 {
		t.Fatalf("report = %+v, want no insertions and one already-present", report)
	}

	refs := videoRefs(t, filepath.Join(f.dataDir, "N13.xml"), "13", "1001")
	if len(refs) != 1 {
		t.Fatalf("refs = %v, want exactly one tag", refs)
	}
}

func TestRunSelectsOnlyObservedCollections(t *testing.T) {
	f := newFixture(t,
		[]string{"N13-1001.mp4", "Q13-1004.mp4"},
		map[string]string{"N13.xml": n13Doc, "Q13.xml": q13Doc, "R13.xml": `<collection id="R13"/>`})

	before, err := os.ReadFile(filepath.Join(f.dataDir, "R13.xml"))
	if err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	wantDocs := []string{filepath.Join(f.dataDir, "N13.xml"), filepath.Join(f.dataDir, "Q13.xml")}
	if len(report.Documents) != 2 || report.Documents[0] != wantDocs[0] || report.Documents[1] != wantDocs[1] {
		t.Fatalf("documents = %v, want %v", report.Documents, wantDocs)
	}

	after, err := os.ReadFile(filepath.Join(f.dataDir, "R13.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("unselected document was rewritten")
	}
}

func TestRunMissingPaperFailMode(t *testing.T) {
	f := newFixture(t, []string{"N13-9999.mp4"}, map[string]string{"N13.xml": n13Doc})

	if _, err := Run(context.Background(), f.options()); !errors.Is(err, catalog.ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestRunMissingPaperSkipMode(t *testing.T) {
	f := newFixture(t, []string{"N13-9999.mp4", "N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})
	opts := f.options()
	opts.OnMissingPaper = config.OnMissingSkip

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.MissingPapers) != 1 || report.MissingPapers[0] != "N13-9999" {
		t.Fatalf("missing papers = %v", report.MissingPapers)
	}
	if len(report.Insertions) != 1 {
		t.Fatalf("insertions = %d, want 1", len(report.Insertions))
	}
}

func TestRunSkipsMalformedFilenames(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4", "holiday-footage.mp4"}, map[string]string{"N13.xml": n13Doc})

	report, err := Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.SkippedFiles) != 1 || report.SkippedFiles[0] != "holiday-footage.mp4" {
		t.Fatalf("skipped = %v", report.SkippedFiles)
	}
	if report.SkippedCount() != 1 {
		t.Fatalf("SkippedCount = %d, want 1", report.SkippedCount())
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})
	opts := f.options()
	opts.DryRun = true

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Insertions) != 1 {
		t.Fatalf("dry run should still report insertions, got %d", len(report.Insertions))
	}

	data, err := os.ReadFile(filepath.Join(f.dataDir, "N13.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != n13Doc {
		t.Fatal("dry run modified the document")
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	f := newFixture(t, nil, map[string]string{"N13.xml": n13Doc})

	report, err := Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Insertions) != 0 || len(report.Documents) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRunRecordsLedger(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})

	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()

	opts := f.options()
	opts.Ledger = store
	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ctx := context.Background()
	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != report.RunID || runs[0].Inserted != 1 {
		t.Fatalf("unexpected ledger runs: %+v", runs)
	}
	insertions, err := store.RunInsertions(ctx, report.RunID)
	if err != nil {
		t.Fatalf("RunInsertions failed: %v", err)
	}
	if len(insertions) != 1 || insertions[0].Reference != "N13-1001.mp4" {
		t.Fatalf("unexpected ledger insertions: %+v", insertions)
	}
}

func TestRunRefusesWhenLocked(t *testing.T) {
	f := newFixture(t, []string{"N13-1001.mp4"}, map[string]string{"N13.xml": n13Doc})

	lock := flock.New(filepath.Join(f.dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire lock: %v %v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := Run(context.Background(), f.options()); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
