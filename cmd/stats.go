package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	statsChart string
	statsOpen  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about your stored documents",
	Long: `Fetch your documents and summarize them.

Includes:
  - Document count and total size
  - Breakdown by file type
  - Uploads over the last 7 days

Use --chart to write an HTML bar chart of the type breakdown.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsChart, "chart", "", "Write an HTML chart to this path")
	statsCmd.Flags().Lookup("chart").NoOptDefVal = "-"
	statsCmd.Flags().BoolVar(&statsOpen, "open", false, "Open the chart after writing it")
}

// typeCount is one row of the per-extension breakdown
type typeCount struct {
	Ext   string
	Count int
	Bytes int64
}

// documentStats is the aggregate view rendered by stats
type documentStats struct {
	Total      int
	TotalBytes int64
	Types      []typeCount
	Activity   map[string]int // "YYYY-MM-DD" -> uploads
	Newest     *domain.Document
}

func collectStats(docs []domain.Document) documentStats {
	st := documentStats{Activity: make(map[string]int)}
	byExt := make(map[string]*typeCount)

	for i := range docs {
		d := docs[i]
		st.Total++
		st.TotalBytes += d.Size

		ext := d.Extension()
		tc, ok := byExt[ext]
		if !ok {
			tc = &typeCount{Ext: ext}
			byExt[ext] = tc
		}
		tc.Count++
		tc.Bytes += d.Size

		if !d.UploadedAt.IsZero() {
			st.Activity[d.UploadedAt.Local().Format("2006-01-02")]++
			if st.Newest == nil || d.UploadedAt.After(st.Newest.UploadedAt) {
				st.Newest = &docs[i]
			}
		}
	}

	for _, tc := range byExt {
		st.Types = append(st.Types, *tc)
	}
	sort.Slice(st.Types, func(i, j int) bool {
		if st.Types[i].Count != st.Types[j].Count {
			return st.Types[i].Count > st.Types[j].Count
		}
		return st.Types[i].Ext < st.Types[j].Ext
	})
	return st
}

func runStats(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatRocket("Fetching documents..."))

	docs, err := controller.Documents(getContext())
	if err != nil {
		return reportError(err)
	}
	st := collectStats(docs)

	fmt.Println()
	fmt.Println(ui.FormatTitle("Document Statistics"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintf(w, "%s\t%d\n", ui.StyleBold.Render("Total Documents:"), st.Total)
	fmt.Fprintf(w, "%s\t%s\n", ui.StyleBold.Render("Total Size:"), domain.FormatSize(st.TotalBytes))
	avg := int64(0)
	if st.Total > 0 {
		avg = st.TotalBytes / int64(st.Total)
	}
	fmt.Fprintf(w, "%s\t%s\n", ui.StyleBold.Render("Average Size:"), domain.FormatSize(avg))
	if st.Newest != nil {
		fmt.Fprintf(w, "%s\t%s (%s)\n", ui.StyleBold.Render("Latest Upload:"),
			st.Newest.Filename, st.Newest.GetDisplayDate(appConfig.DisplayDateFormat))
	}
	w.Flush()
	fmt.Println()

	renderTypeBars(st.Types)
	fmt.Println()
	renderActivity(st.Activity, time.Now())

	if cmd.Flags().Changed("chart") {
		path := statsChart
		if path == "" || path == "-" {
			path = appDirs.ChartPath("stats.html")
		}
		if err := writeStatsChart(path, st); err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(ui.FormatSuccess("Chart written to " + path))
		if statsOpen {
			return OpenFile(path)
		}
	}
	return nil
}

// renderTypeBars displays a horizontal bar chart of documents per type
func renderTypeBars(types []typeCount) {
	if len(types) == 0 {
		return
	}

	fmt.Println(ui.StyleHeader.Render("By Type"))

	maxCount := types[0].Count
	barWidth := 20

	for _, t := range types {
		length := int(math.Ceil(float64(t.Count) / float64(maxCount) * float64(barWidth)))
		bar := strings.Repeat("█", length)

		fmt.Printf("%s %-8s %s\n",
			ui.StyleAccent.Render(fmt.Sprintf("%-*s", barWidth, bar)),
			t.Ext,
			ui.StyleMuted.Render(fmt.Sprintf("%d (%s)", t.Count, domain.FormatSize(t.Bytes))),
		)
	}
}

// renderActivity prints one cell per day for the week ending at now
func renderActivity(activity map[string]int, now time.Time) {
	fmt.Println(ui.StyleHeader.Render("Uploads (Last 7 Days)"))

	var blocks, labels []string
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		block := "⬜"
		if activity[day.Format("2006-01-02")] > 0 {
			block = "🟩"
		}
		blocks = append(blocks, block)
		labels = append(labels, fmt.Sprintf("%-4s", day.Format("Mon")))
	}

	fmt.Println(strings.Join(blocks, "  "))
	fmt.Println(ui.StyleMuted.Render(strings.Join(labels, "")))
}

// writeStatsChart renders the type breakdown as a standalone HTML page
func writeStatsChart(path string, st documentStats) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Documents by type",
			Subtitle: fmt.Sprintf("%d documents, %s", st.Total, domain.FormatSize(st.TotalBytes)),
		}),
	)

	xAxis := make([]string, 0, len(st.Types))
	counts := make([]opts.BarData, 0, len(st.Types))
	for _, t := range st.Types {
		xAxis = append(xAxis, t.Ext)
		counts = append(counts, opts.BarData{Value: t.Count})
	}
	bar.SetXAxis(xAxis).AddSeries("Documents", counts)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
