package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func dropFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoute_DoneFileKeepsItsName(t *testing.T) {
	inbox, done, errs := t.TempDir(), t.TempDir(), t.TempDir()
	r := NewRouter(done, errs, nil)

	src := dropFile(t, inbox, "w2.pdf")
	job := NewJob(src)
	job.finish(StatusDone, OutcomeFilled, nil)

	dest, err := r.Route(job)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if want := filepath.Join(done, "w2.pdf"); dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("routed file missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still in inbox after routing")
	}
	if _, err := os.Stat(dest + ".reason.txt"); !os.IsNotExist(err) {
		t.Errorf("done outcome must not get a reason sidecar")
	}
}

func TestRoute_FailureWritesReasonSidecar(t *testing.T) {
	inbox, done, errs := t.TempDir(), t.TempDir(), t.TempDir()
	r := NewRouter(done, errs, nil)

	src := dropFile(t, inbox, "scan.pdf")
	job := NewJob(src)
	job.finish(StatusFailed, OutcomeNoFields, os.ErrInvalid)

	dest, err := r.Route(job)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if filepath.Dir(dest) != errs {
		t.Errorf("failed job routed to %q, want the errors dir", dest)
	}

	reason, err := os.ReadFile(dest + ".reason.txt")
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	if !strings.Contains(string(reason), OutcomeNoFields) {
		t.Errorf("sidecar %q missing the outcome", reason)
	}
	if !strings.Contains(string(reason), os.ErrInvalid.Error()) {
		t.Errorf("sidecar %q missing the underlying error", reason)
	}
}

func TestRoute_NameCollisionGetsJobSuffix(t *testing.T) {
	inbox, done, errs := t.TempDir(), t.TempDir(), t.TempDir()
	r := NewRouter(done, errs, nil)

	first := NewJob(dropFile(t, inbox, "w2.pdf"))
	first.finish(StatusDone, OutcomeFilled, nil)
	if _, err := r.Route(first); err != nil {
		t.Fatalf("routing first file: %v", err)
	}

	second := NewJob(dropFile(t, inbox, "w2.pdf"))
	second.finish(StatusDone, OutcomeFilled, nil)
	dest, err := r.Route(second)
	if err != nil {
		t.Fatalf("routing second file: %v", err)
	}
	if dest == filepath.Join(done, "w2.pdf") {
		t.Fatal("second file overwrote the first")
	}
	if base := filepath.Base(dest); !strings.Contains(base, shortID(second.ID)) {
		t.Errorf("dest %q not disambiguated with the job id", base)
	}
	for _, p := range []string{filepath.Join(done, "w2.pdf"), dest} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %q to exist: %v", p, err)
		}
	}
}

func TestRoute_RefusesNonTerminalJob(t *testing.T) {
	r := NewRouter(t.TempDir(), t.TempDir(), nil)
	job := NewJob("somewhere.pdf")
	job.Status = StatusParsed
	if _, err := r.Route(job); err == nil {
		t.Error("Route() expected an error for a non-terminal job")
	}
}

func TestRoute_MissingSourceFails(t *testing.T) {
	r := NewRouter(t.TempDir(), t.TempDir(), nil)
	job := NewJob(filepath.Join(t.TempDir(), "vanished.pdf"))
	job.finish(StatusDone, OutcomeFilled, nil)
	if _, err := r.Route(job); err == nil {
		t.Error("Route() expected an error when the source file is gone")
	}
}
