package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/services"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	listSortBy    string
	listReverse   bool
	listExtension string
	listQuery     string
	listJSON      bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List your uploaded documents",
	Aliases: []string{"ls"},
	Long: `List the documents stored for the signed-in account.

The list is always fetched from the backend.

Examples:
  docusage list
  docusage list --sort name
  docusage list --ext pdf --reverse
  docusage list --search report
  docusage ls --json`,
	RunE: runList,
}

func init() {
	// Sort defaults to backend order, but we handle config override in runList
	listCmd.Flags().StringVar(&listSortBy, "sort", "", "Sort by field (date, name, size)")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Reverse sort order")
	listCmd.Flags().StringVar(&listExtension, "ext", "", "Only show files with this extension")
	listCmd.Flags().StringVarP(&listQuery, "search", "s", "", "Fuzzy filter by filename")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the documents as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	// If the flag was NOT changed by the user, use the config default
	if !cmd.Flags().Changed("sort") {
		listSortBy = appConfig.DefaultSort
	}
	if !cmd.Flags().Changed("reverse") {
		listReverse = appConfig.ReverseSort
	}

	req := services.ListRequest{
		Extension: listExtension,
		SortBy:    listSortBy,
		Reverse:   listReverse,
		Query:     listQuery,
	}

	resp, err := listService.Execute(getContext(), controller.Session(), req)
	if err != nil {
		return reportError(err)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Documents)
	}

	if resp.Total == 0 {
		if listExtension != "" || listQuery != "" {
			fmt.Println(ui.FormatWarning("No documents match the filter"))
		} else {
			fmt.Println(ui.FormatWarning("No documents yet"))
			fmt.Println(ui.FormatInfo("Upload your first file with: docusage upload report.pdf"))
		}
		return nil
	}

	fmt.Println(ui.FormatTitle("Documents"))
	fmt.Println()
	fmt.Print(renderDocumentTable(resp.Documents))
	fmt.Println()

	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d documents, %s",
		resp.Total, domain.FormatSize(resp.TotalBytes))))
	return nil
}

func renderDocumentTable(docs []domain.Document) string {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "ID", Width: 4, Align: "right"},
		{Header: "Filename", Width: 30, MaxWidth: 48, Align: "left"},
		{Header: "Size", Width: 8, Align: "right"},
		{Header: "Uploaded", Width: 16, Align: "left"},
	})

	for _, doc := range docs {
		table.AddRow([]string{
			doc.ID,
			doc.Filename,
			domain.FormatSize(doc.Size),
			doc.GetDisplayDate(appConfig.DisplayDateFormat),
		})
	}
	return table.Render()
}
