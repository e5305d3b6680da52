package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/draketools/w2fill/internal/confirm"
	"github.com/draketools/w2fill/internal/extract"
	"github.com/draketools/w2fill/internal/inject"
	"github.com/draketools/w2fill/internal/input"
	"github.com/draketools/w2fill/internal/parse"
	"github.com/draketools/w2fill/internal/w2"
)

type stubExtractor struct {
	res *extract.Result
	err error
}

func (s *stubExtractor) Extract(context.Context, string) (*extract.Result, error) {
	return s.res, s.err
}

// stubParser hands out a fresh record per call so two jobs never share
// one.
type stubParser struct {
	err error
}

func (s *stubParser) Parse(string) (*parse.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return goodRecord(), nil
}

type stubInjector struct {
	err   error
	runs  int
	plans []*inject.Plan
	cals  []*input.Calibration
}

func (s *stubInjector) Run(_ context.Context, plan *inject.Plan, cal *input.Calibration) error {
	s.runs++
	s.plans = append(s.plans, plan)
	s.cals = append(s.cals, cal)
	return s.err
}

func goodRecord() *parse.Record {
	return &parse.Record{
		Values: map[string]string{
			w2.FieldEIN:       "123456789",
			w2.FieldBox1Wages: "54321.07",
		},
		Checks: map[string]bool{},
		Pairs:  map[string][]parse.Pair{},
	}
}

// testEnv assembles a runner over temp dirs with every stage stubbed to
// succeed; tests override single stages to drive the outcome they want.
type testEnv struct {
	home  string
	inbox string
	done  string
	errs  string
	gate  *confirm.MockGate
	inj   *stubInjector
	cfg   RunnerConfig
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	env := &testEnv{
		home:  home,
		inbox: filepath.Join(home, "inbox"),
		done:  filepath.Join(home, "done"),
		errs:  filepath.Join(home, "errors"),
		gate:  &confirm.MockGate{Decision: confirm.Accept},
		inj:   &stubInjector{},
	}
	if err := os.MkdirAll(env.inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	env.cfg = RunnerConfig{
		Schema: w2.Default(),
		Extractor: &stubExtractor{
			res: &extract.Result{Text: "w-2 text", Method: extract.MethodTextLayer, Pages: 1},
		},
		Parser:   &stubParser{},
		Gate:     env.gate,
		Injector: env.inj,
		Router:   NewRouter(env.done, env.errs, nil),
	}
	return env
}

func (e *testEnv) runner(t *testing.T) *Runner {
	t.Helper()
	r, err := NewRunner(e.cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func readSidecar(t *testing.T, dest string) string {
	t.Helper()
	b, err := os.ReadFile(dest + ".reason.txt")
	if err != nil {
		t.Fatalf("reading sidecar for %s: %v", filepath.Base(dest), err)
	}
	return string(b)
}

func TestProcess_AcceptedRecordIsFilledAndRouted(t *testing.T) {
	env := newEnv(t)
	src := dropFile(t, env.inbox, "w2.pdf")

	job, err := env.runner(t).Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if job.Status != StatusDone || job.Outcome != OutcomeFilled {
		t.Errorf("job = %s/%s, want done/filled", job.Status, job.Outcome)
	}
	if job.FinishedAt == nil {
		t.Error("terminal job has no finish time")
	}
	if job.Record == nil || job.Record.Method != extract.MethodTextLayer || job.Record.SourcePath != src {
		t.Errorf("record not attached to job: %+v", job.Record)
	}

	if _, err := os.Stat(filepath.Join(env.done, "w2.pdf")); err != nil {
		t.Errorf("document not in done dir: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("document still in inbox")
	}

	if len(env.gate.Presented) != 1 || env.gate.Awaited != 1 {
		t.Errorf("gate saw %d presents / %d awaits, want 1/1", len(env.gate.Presented), env.gate.Awaited)
	}
	if env.inj.runs != 1 {
		t.Fatalf("injector ran %d times, want 1", env.inj.runs)
	}
	if got := len(env.inj.plans[0].Steps); got != w2.Default().SlotCount {
		t.Errorf("plan has %d steps, want one per slot (%d)", got, w2.Default().SlotCount)
	}
}

func TestProcess_ExtractorErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"engine missing", fmt.Errorf("no ocr engine: %w", extract.ErrUnavailable), OutcomeUnavailable},
		{"damaged document", errors.New("pdf: damaged xref"), OutcomeExtractFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			env.cfg.Extractor = &stubExtractor{err: tt.err}
			src := dropFile(t, env.inbox, "w2.pdf")

			job, err := env.runner(t).Process(context.Background(), src)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if job.Status != StatusFailed || job.Outcome != tt.outcome {
				t.Errorf("job = %s/%s, want failed/%s", job.Status, job.Outcome, tt.outcome)
			}
			dest := filepath.Join(env.errs, "w2.pdf")
			if _, err := os.Stat(dest); err != nil {
				t.Fatalf("document not in errors dir: %v", err)
			}
			if got := readSidecar(t, dest); !strings.Contains(got, tt.outcome) {
				t.Errorf("sidecar %q missing outcome %q", got, tt.outcome)
			}
			if len(env.gate.Presented) != 0 || env.inj.runs != 0 {
				t.Error("later stages ran after extraction failed")
			}
		})
	}
}

func TestProcess_NoFieldsRecovered(t *testing.T) {
	env := newEnv(t)
	env.cfg.Parser = &stubParser{err: fmt.Errorf("grocery receipt: %w", parse.ErrNoFields)}
	src := dropFile(t, env.inbox, "receipt.pdf")

	job, err := env.runner(t).Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if job.Status != StatusFailed || job.Outcome != OutcomeNoFields {
		t.Errorf("job = %s/%s, want failed/%s", job.Status, job.Outcome, OutcomeNoFields)
	}
	if _, err := os.Stat(filepath.Join(env.errs, "receipt.pdf")); err != nil {
		t.Errorf("document not in errors dir: %v", err)
	}
}

func TestProcess_OperatorRejects(t *testing.T) {
	env := newEnv(t)
	env.gate.Decision = confirm.Reject
	src := dropFile(t, env.inbox, "w2.pdf")

	job, err := env.runner(t).Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if job.Status != StatusRejected || job.Outcome != OutcomeRejected {
		t.Errorf("job = %s/%s, want rejected/%s", job.Status, job.Outcome, OutcomeRejected)
	}
	if env.inj.runs != 0 {
		t.Error("injection ran for a rejected record")
	}
	dest := filepath.Join(env.errs, "w2.pdf")
	if got := readSidecar(t, dest); !strings.Contains(got, OutcomeRejected) {
		t.Errorf("sidecar %q missing rejection reason", got)
	}
}

func TestProcess_InjectionOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"operator abort", inject.ErrAborted, OutcomeAborted},
		{"driver failure", errors.New("uinput device gone"), OutcomeInjectFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			env.inj.err = tt.err
			src := dropFile(t, env.inbox, "w2.pdf")

			job, err := env.runner(t).Process(context.Background(), src)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if job.Status != StatusFailed || job.Outcome != tt.outcome {
				t.Errorf("job = %s/%s, want failed/%s", job.Status, job.Outcome, tt.outcome)
			}
			if _, err := os.Stat(filepath.Join(env.errs, "w2.pdf")); err != nil {
				t.Errorf("document not in errors dir: %v", err)
			}
		})
	}
}

// shutdownGate cancels the surrounding context from inside Await, the way
// a SIGINT lands while the pipeline waits on the operator.
type shutdownGate struct {
	cancel context.CancelFunc
}

func (g *shutdownGate) Present(context.Context, *parse.Record) error { return nil }

func (g *shutdownGate) Await(ctx context.Context) (confirm.Decision, error) {
	g.cancel()
	return 0, ctx.Err()
}

func TestProcess_ShutdownLeavesDocumentInInbox(t *testing.T) {
	env := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.cfg.Gate = &shutdownGate{cancel: cancel}
	src := dropFile(t, env.inbox, "w2.pdf")

	job, err := env.runner(t).Process(ctx, src)
	if err == nil {
		t.Fatal("Process() expected an error on shutdown")
	}
	if job.Status.Terminal() {
		t.Errorf("job reached terminal status %s during shutdown", job.Status)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("document must stay in the inbox for the next start: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.errs, "w2.pdf")); !os.IsNotExist(err) {
		t.Error("document was routed during shutdown")
	}
}

func TestProcess_CalibrationHandedToInjector(t *testing.T) {
	env := newEnv(t)
	calPath := filepath.Join(env.home, "calibration.json")
	if err := input.SaveCalibration(calPath, input.Calibration{AbsX: 700, AbsY: 412}); err != nil {
		t.Fatal(err)
	}
	env.cfg.CalibrationPath = calPath
	src := dropFile(t, env.inbox, "w2.pdf")

	if _, err := env.runner(t).Process(context.Background(), src); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if env.inj.runs != 1 || env.inj.cals[0] == nil {
		t.Fatal("injector did not receive the calibration")
	}
	if got := env.inj.cals[0]; got.AbsX != 700 || got.AbsY != 412 {
		t.Errorf("calibration = %+v, want 700,412", got)
	}
}

func TestProcess_CorruptCalibrationIgnored(t *testing.T) {
	env := newEnv(t)
	calPath := filepath.Join(env.home, "calibration.json")
	if err := os.WriteFile(calPath, []byte("{half a"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.cfg.CalibrationPath = calPath
	src := dropFile(t, env.inbox, "w2.pdf")

	job, err := env.runner(t).Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if job.Status != StatusDone {
		t.Errorf("job status = %s, want done despite bad calibration", job.Status)
	}
	if env.inj.cals[0] != nil {
		t.Error("corrupt calibration passed to injector, want nil")
	}
}

func TestDryRun_NeverInjectsOrRoutes(t *testing.T) {
	env := newEnv(t)
	src := dropFile(t, env.inbox, "w2.pdf")

	rec, err := env.runner(t).DryRun(context.Background(), src)
	if err != nil {
		t.Fatalf("DryRun() error = %v", err)
	}
	if rec.Method != extract.MethodTextLayer || rec.SourcePath != src {
		t.Errorf("record = %s/%s, want method and source filled in", rec.Method, rec.SourcePath)
	}
	if len(env.gate.Presented) != 1 {
		t.Errorf("gate saw %d presents, want 1", len(env.gate.Presented))
	}
	if env.gate.Awaited != 0 {
		t.Error("dry run awaited a decision")
	}
	if env.inj.runs != 0 {
		t.Error("dry run injected")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("dry run moved the document: %v", err)
	}
}

func TestNewRunner_RequiresEveryStage(t *testing.T) {
	clear := map[string]func(*RunnerConfig){
		"schema":    func(c *RunnerConfig) { c.Schema = nil },
		"extractor": func(c *RunnerConfig) { c.Extractor = nil },
		"parser":    func(c *RunnerConfig) { c.Parser = nil },
		"gate":      func(c *RunnerConfig) { c.Gate = nil },
		"injector":  func(c *RunnerConfig) { c.Injector = nil },
		"router":    func(c *RunnerConfig) { c.Router = nil },
	}
	for name, strip := range clear {
		t.Run(name, func(t *testing.T) {
			env := newEnv(t)
			strip(&env.cfg)
			if _, err := NewRunner(env.cfg); err == nil {
				t.Errorf("NewRunner() accepted a config without a %s", name)
			}
		})
	}
}

func TestStart_DrainsQueueInArrivalOrder(t *testing.T) {
	env := newEnv(t)
	srcA := dropFile(t, env.inbox, "a.pdf")
	srcB := dropFile(t, env.inbox, "b.pdf")

	queue := make(chan string, 2)
	queue <- srcA
	queue <- srcB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := env.runner(t)
	stopped := make(chan struct{})
	go func() {
		r.Start(ctx, queue)
		close(stopped)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, errA := os.Stat(filepath.Join(env.done, "a.pdf"))
		_, errB := os.Stat(filepath.Join(env.done, "b.pdf"))
		if errA == nil && errB == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("queue was not drained")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Start did not stop on cancellation")
	}

	if len(env.gate.Presented) != 2 {
		t.Fatalf("gate saw %d records, want 2", len(env.gate.Presented))
	}
	if env.gate.Presented[0].SourcePath != srcA || env.gate.Presented[1].SourcePath != srcB {
		t.Errorf("processed out of arrival order: %s then %s",
			env.gate.Presented[0].SourcePath, env.gate.Presented[1].SourcePath)
	}
}
