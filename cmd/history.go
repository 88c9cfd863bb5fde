package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	historyAll  bool
	historyPick bool
)

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "Show files uploaded from this machine",
	Long: `List the local upload history.

Every upload from 'docusage upload' and 'docusage watch' is recorded with
the file's content hash, so unchanged files can be skipped later.
By default only the signed-in account's uploads are shown.

Use --pick to choose an entry interactively and copy its server path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&historyAll, "all", "a", false, "Show uploads from every account")
	historyCmd.Flags().BoolVarP(&historyPick, "pick", "p", false, "Pick an entry and copy its server path")
}

func runHistory(cmd *cobra.Command, args []string) error {
	records, err := uploadHistory.List(getContext())
	if err != nil {
		return fmt.Errorf("failed to read upload history: %w", err)
	}

	account := ""
	if s := controller.Session(); s != nil {
		account = s.Email
	}
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	records = filterHistory(records, account, historyAll, query)

	if len(records) == 0 {
		fmt.Println(ui.FormatWarning("No uploads recorded."))
		return nil
	}

	if historyPick {
		return pickHistoryRecord(records)
	}

	table := ui.NewTable([]ui.TableColumn{
		{Header: "File", Width: 24, MaxWidth: 40, Align: "left"},
		{Header: "Size", Width: 8, Align: "right"},
		{Header: "Uploaded", Width: 16, Align: "left"},
		{Header: "Account", Width: 16, MaxWidth: 28, Align: "left"},
	})
	for _, r := range records {
		table.AddRow([]string{
			r.Filename,
			domain.FormatSize(r.Size),
			r.UploadedAt.Local().Format(appConfig.DisplayDateFormat),
			r.Account,
		})
	}
	fmt.Println(ui.FormatTitle("Upload History"))
	fmt.Println()
	fmt.Print(table.Render())
	return nil
}

// filterHistory keeps the account's records (or all) matching query
func filterHistory(records []domain.UploadRecord, account string, all bool, query string) []domain.UploadRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.UploadRecord, 0, len(records))
	for _, r := range records {
		if !all && account != "" && r.Account != account {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Filename), query) &&
			!strings.Contains(strings.ToLower(r.LocalPath), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func pickHistoryRecord(records []domain.UploadRecord) error {
	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string {
			return records[i].Filename
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			r := records[i]
			return fmt.Sprintf("File: %s\nLocal: %s\nServer: %s\nSize: %s\nAccount: %s\nUploaded: %s\nSHA-256: %s",
				r.Filename, r.LocalPath, r.ServerPath, domain.FormatSize(r.Size), r.Account,
				r.UploadedAt.Local().Format(appConfig.DisplayDateFormat), r.Hash)
		}),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return nil
		}
		return err
	}

	r := records[idx]
	value := r.ServerPath
	if value == "" {
		value = r.Filename
	}
	if err := clipboard.WriteAll(value); err != nil {
		fmt.Println(value)
		return nil
	}
	fmt.Println(ui.FormatSuccess("Copied to clipboard: " + value))
	return nil
}
