package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/snapdiff/internal/diff"
	"github.com/bamsammich/snapdiff/internal/driver"
)

// ReportOptions configures RenderReport.
type ReportOptions struct {
	Theme Theme
	Color bool
}

// RenderReport writes one section per non-empty category followed by the
// summary line. Pass a categorized sorted diff for path-ordered sections.
func RenderReport(w io.Writer, c diff.Categorized, opts ReportOptions) error {
	st := opts.Theme.styles(lipgloss.NewRenderer(w), opts.Color)
	var b strings.Builder

	section := func(title string, n int) {
		fmt.Fprintf(&b, "%s %s\n", st.header(title+":"), st.size(fmt.Sprintf("(%s)", FormatCount(int64(n)))))
	}

	if len(c.Added) > 0 {
		section("Added", len(c.Added))
		for _, e := range c.Added {
			fmt.Fprintf(&b, "  %s\n", describe(e.Path, e.Change.New, st.added, st.size))
		}
		b.WriteByte('\n')
	}

	if len(c.Modified) > 0 {
		section("Modified", len(c.Modified))
		for _, e := range c.Modified {
			fmt.Fprintf(&b, "  %s %s\n",
				st.modified(e.Path),
				st.size(fmt.Sprintf("(%s => %s)", FormatBytes(e.Change.Prev.Size), FormatBytes(e.Change.New.Size))),
			)
		}
		b.WriteByte('\n')
	}

	if len(c.TypeChanged) > 0 {
		section("Type changed", len(c.TypeChanged))
		for _, e := range c.TypeChanged {
			path := e.Path
			if e.Change.New.IsDir() {
				path += "/"
			}
			fmt.Fprintf(&b, "  %s %s\n",
				st.typeChanged(path),
				st.size(fmt.Sprintf("(%s => %s)", typeLetter(e.Change.Prev), typeLetter(e.Change.New))),
			)
		}
		b.WriteByte('\n')
	}

	if len(c.Deleted) > 0 {
		section("Deleted", len(c.Deleted))
		for _, e := range c.Deleted {
			fmt.Fprintf(&b, "  %s\n", describe(e.Path, e.Change.Prev, st.deleted, st.size))
		}
		b.WriteByte('\n')
	}

	s := diff.Summarize(c)
	fmt.Fprintf(&b, "%s items to transfer, %s to delete, %s total\n",
		st.transfer(FormatCount(int64(s.TransferCount))),
		st.remove(FormatCount(int64(s.DeleteCount))),
		st.count(FormatBytes(s.TransferSize)),
	)

	_, err := io.WriteString(w, b.String())
	return err
}

// describe renders a directory with a trailing slash and a file with its
// size.
func describe(path string, m driver.Metadata, name, size paint) string {
	if m.IsDir() {
		return name(path + "/")
	}
	return name(path) + " " + size(fmt.Sprintf("(%s)", FormatBytes(m.File.Size)))
}

func typeLetter(m driver.Metadata) string {
	if m.IsDir() {
		return "D"
	}
	return "F"
}
