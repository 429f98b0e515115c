package stamp

import (
	"fmt"
	"io"

	"github.com/tbckr/stamp/internal/output"
)

// Results is the rendered form of a stamp or bump run.
type Results []Result

// WriteTable implements output.TableFormattable.
func (rs Results) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 16, 30)
	table.Header([]string{"TARGET", "PREVIOUS", "VERSION", "CHANGED"})
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		changed := yesNo(r.Changed)
		if r.DryRun && r.Changed {
			changed = "would change"
		}
		rows = append(rows, []string{
			output.Sanitize(r.Target.DisplayName()),
			dash(output.Sanitize(r.Previous)),
			output.Sanitize(r.Version),
			changed,
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain implements output.PlainFormattable: "<target> <version>" per line.
func (rs Results) WritePlain(w io.Writer) error {
	for _, r := range rs {
		if _, err := fmt.Fprintf(w, "%s %s\n", output.Sanitize(r.Target.DisplayName()), output.Sanitize(r.Version)); err != nil {
			return err
		}
	}
	return nil
}

// Statuses is the rendered form of a show or verify run.
type Statuses []Status

// WriteTable implements output.TableFormattable.
func (ss Statuses) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 16, 30)
	table.Header([]string{"TARGET", "MANIFEST", "VERSION FILE", "IN SYNC"})
	rows := make([][]string, 0, len(ss))
	for _, s := range ss {
		rows = append(rows, []string{
			output.Sanitize(s.Target.DisplayName()),
			dash(output.Sanitize(s.ManifestVersion)),
			dash(output.Sanitize(s.FileVersion)),
			yesNo(s.InSync),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain implements output.PlainFormattable: "<target> <manifest> <file>" per line.
func (ss Statuses) WritePlain(w io.Writer) error {
	for _, s := range ss {
		if _, err := fmt.Fprintf(w, "%s %s %s\n",
			output.Sanitize(s.Target.DisplayName()),
			dash(output.Sanitize(s.ManifestVersion)),
			dash(output.Sanitize(s.FileVersion))); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
