package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/draketools/w2fill/internal/parse"
	"github.com/draketools/w2fill/internal/w2"
)

// Console is a Gate on an interactive terminal: a field summary followed by
// a y/n prompt.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

func NewConsole(in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{in: bufio.NewReader(in), out: out, logger: logger}
}

func (c *Console) Present(_ context.Context, rec *parse.Record) error {
	_, err := fmt.Fprint(c.out, Summary(rec))
	return err
}

func (c *Console) Await(ctx context.Context) (Decision, error) {
	for {
		if _, err := fmt.Fprint(c.out, "Fill the target screen with these values? [y/n]: "); err != nil {
			return Reject, err
		}
		line, err := c.readLine(ctx)
		if err != nil {
			return Reject, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return Accept, nil
		case "n", "no":
			return Reject, nil
		}
		// Anything else re-prompts.
	}
}

// readLine reads one line without holding the caller past context
// cancellation. The underlying read cannot be interrupted; on cancel it is
// abandoned to finish against a dead prompt.
func (c *Console) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return "", fmt.Errorf("reading decision: %w", r.err)
		}
		return r.line, nil
	}
}

// Summary renders the record the way the operator reviews it: the identity
// and headline wage boxes, row counts for the list fields, checked boxes,
// and every flag raised during parsing marked with a leading "!".
func Summary(rec *parse.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nReady to fill W-2 data\n\n")
	if rec.SourcePath != "" {
		fmt.Fprintf(&b, "  Source:         %s (%s)\n", filepath.Base(rec.SourcePath), rec.Method)
	}

	rows := []struct {
		label string
		field string
	}{
		{"EIN", w2.FieldEIN},
		{"Employer", w2.FieldEmployerName},
		{"Box 1 Wages", w2.FieldBox1Wages},
		{"Box 2 Fed Tax", w2.FieldBox2FedTax},
		{"Box 3 SS Wages", w2.FieldBox3SSWages},
		{"Box 4 SS Tax", w2.FieldBox4SSTax},
		{"Box 5 Med Wages", w2.FieldBox5MedWages},
		{"Box 6 Med Tax", w2.FieldBox6MedTax},
		{"State", w2.FieldBox15State},
	}
	for _, row := range rows {
		v, ok := rec.Value(row.field)
		if !ok || v == "" {
			v = "-"
		}
		mark := " "
		if rec.Flagged(row.field) {
			mark = "!"
		}
		fmt.Fprintf(&b, " %s%-16s%s\n", mark, row.label+":", v)
	}

	if pairs := rec.PairList(w2.FieldBox12); len(pairs) > 0 {
		var codes []string
		for _, p := range pairs {
			codes = append(codes, p.Code+" "+p.Amount)
		}
		fmt.Fprintf(&b, "  %-16s%s\n", "Box 12:", strings.Join(codes, ", "))
	}
	if pairs := rec.PairList(w2.FieldBox14); len(pairs) > 0 {
		fmt.Fprintf(&b, "  %-16s%d row(s)\n", "Box 14:", len(pairs))
	}

	var checked []string
	for _, name := range []string{w2.FieldBox13Statutory, w2.FieldBox13Retirement, w2.FieldBox13SickPay} {
		if rec.Check(name) {
			checked = append(checked, strings.TrimPrefix(name, "box13_"))
		}
	}
	if len(checked) > 0 {
		fmt.Fprintf(&b, "  %-16s%s\n", "Box 13:", strings.Join(checked, ", "))
	}

	if len(rec.Flags) > 0 {
		fmt.Fprintf(&b, "\nFlagged values:\n")
		for _, f := range rec.Flags {
			fmt.Fprintf(&b, "  ! %s: %q %s\n", f.Field, f.Raw, f.Reason)
		}
	}
	fmt.Fprintf(&b, "\n")
	return b.String()
}
