package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
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

type cliTestEnv struct {
	configPath string
	videoDir   string
	dataDir    string
	logDir     string
}

func setupCLITestEnv(t *testing.T) cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		videoDir:   filepath.Join(base, "videos"),
		dataDir:    filepath.Join(base, "xml"),
		logDir:     filepath.Join(base, "logs"),
	}
	for _, dir := range []string{env.videoDir, env.dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	content := fmt.Sprintf(`
[paths]
video_dir = %q
data_dir = %q
log_dir = %q

[ledger]
enabled = true
`, env.videoDir, env.dataDir, env.logDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (env cliTestEnv) addVideo(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(env.videoDir, name), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (env cliTestEnv) addDocument(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(env.dataDir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runCLI(t *testing.T, env cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addVideo(t, "N13-1001.mp4")
	env.addVideo(t, "N13-4001.1.mp4")
	env.addVideo(t, "N13-4001.2.mp4")
	env.addDocument(t, "N13.xml", n13Doc)

	out, err := runCLI(t, env, "ingest")
	if err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "3 video reference(s)") {
		t.Fatalf("summary missing from output:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "N13.xml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"N13-1001.mp4", "N13-4001.1.mp4", "N13-4001.2.mp4"} {
		if !strings.Contains(string(data), fmt.Sprintf("<video href=%q/>", ref)) {
			t.Fatalf("reference %s missing from document:\n%s", ref, data)
		}
	}

	// The ledger recorded the run.
	out, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Videos") {
		t.Fatalf("history missing run label:\n%s", out)
	}
}

func TestIngestCommandVideoDirFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addDocument(t, "N13.xml", n13Doc)

	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, "N13-1001.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, env, "ingest", "--video-dir", other)
	if err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 video reference(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestIngestCommandMissingPaperFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addVideo(t, "N13-9999.mp4")
	env.addDocument(t, "N13.xml", n13Doc)

	if _, err := runCLI(t, env, "ingest"); err == nil {
		t.Fatal("expected ingest to fail on missing paper")
	}
}

func TestScanCommandDoesNotModify(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addVideo(t, "N13-1001.mp4")
	env.addDocument(t, "N13.xml", n13Doc)

	out, err := runCLI(t, env, "scan")
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Would insert") {
		t.Fatalf("scan output missing preview:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "N13.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != n13Doc {
		t.Fatal("scan modified the document")
	}
}

func TestHistoryBeforeAnyRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No ingest runs recorded yet") {
		t.Fatalf("unexpected history output:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// init refuses to clobber without --overwrite
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}

	out, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[paths]") || !strings.Contains(out, env.dataDir) {
		t.Fatalf("config show output incomplete:\n%s", out)
	}
}
