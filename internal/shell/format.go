package shell

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fruitsalade/fruitshell/pkg/models"
)

// renderEntries prints a listing in long (tabular) or short form.
func renderEntries(w io.Writer, entries []models.ListEntry, long bool) {
	if !long {
		for _, e := range entries {
			name := e.Name
			if e.IsDir() {
				name += "/"
			}
			fmt.Fprintln(w, name)
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tOWNER\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Name,
			typeLabel(e.Type),
			formatSize(e.Size),
			e.Owner,
			formatTime(e.ModTime))
	}
	tw.Flush()
}

// renderParameters prints a plugin's parameter report.
func renderParameters(w io.Writer, params []models.PluginParameter) {
	if len(params) == 0 {
		fmt.Fprintln(w, "No parameters")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FLAG\tNAME\tTYPE\tOPTIONAL\tDEFAULT\tHELP")
	for _, p := range params {
		optional := ""
		if p.Optional {
			optional = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Flag, p.Name, p.Type, optional, p.Default, p.Help)
	}
	tw.Flush()
}

func typeLabel(t models.EntryType) string {
	switch t {
	case models.EntryDir:
		return "dir"
	case models.EntryPlugin:
		return "plugin"
	default:
		return "file"
	}
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
