package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	uploadSkipExisting bool
	uploadPickDepth    int
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload one or more documents",
	Long: `Upload files to your DocuSage account.

With no arguments, pick a file interactively from the current directory.
After uploading, the document list is fetched again to confirm the files
are stored.

Examples:
  docusage upload report.pdf
  docusage upload notes/*.txt --skip-existing
  docusage upload`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadSkipExisting, "skip-existing", false, "Skip files whose content was already uploaded")
	uploadCmd.Flags().IntVar(&uploadPickDepth, "depth", 3, "Directory depth searched by the interactive picker")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if !controller.Session().Present() {
		return reportError(domain.WrapError(domain.ErrAuthRequired, "upload", "You need to log in first.", nil))
	}

	paths := args
	if len(paths) == 0 {
		picked, err := pickUploadFile(".", uploadPickDepth)
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		paths = []string{picked}
	}

	var uploaded []string
	var failed error
	for _, path := range paths {
		fmt.Println(ui.FormatUpload("Uploading " + filepath.Base(path) + "..."))

		res, err := syncService.UploadPath(ctx, path, !uploadSkipExisting)
		if err != nil && res == nil {
			failed = reportError(err)
			if errors.Is(err, domain.ErrSessionInvalid) || errors.Is(err, domain.ErrAuthRequired) {
				break
			}
			continue
		}
		if err != nil {
			fmt.Println(ui.FormatWarning(err.Error()))
		}
		if res.Skipped {
			fmt.Println(ui.FormatInfo(fmt.Sprintf("Skipped %s (already uploaded as %s)",
				filepath.Base(path), res.Record.Filename)))
			continue
		}
		fmt.Println(ui.FormatSuccess(res.Result.Summary(filepath.Base(path))))
		uploaded = append(uploaded, res.Result.Filename)
	}

	if len(uploaded) > 0 {
		confirmUploads(uploaded)
	}
	return failed
}

// confirmUploads refetches the list so the user sees the backend's view
func confirmUploads(names []string) {
	docs, err := controller.Documents(getContext())
	if err != nil {
		fmt.Println(ui.FormatWarning("Uploaded, but the document list could not be refreshed: " + domain.Message(err)))
		return
	}

	stored := make(map[string]bool, len(docs))
	for _, d := range docs {
		stored[d.Filename] = true
	}
	for _, name := range names {
		if !stored[name] {
			fmt.Println(ui.FormatWarning(name + " is not in the document list yet"))
		}
	}
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d documents stored", len(docs))))
}

// pickUploadFile lets the user choose a candidate file under root.
// It returns "" when the picker is aborted.
func pickUploadFile(root string, maxDepth int) (string, error) {
	candidates, err := uploadCandidates(root, maxDepth, candidateExtensions())
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		fmt.Println(ui.FormatWarning("No uploadable files found here"))
		return "", nil
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string { return candidates[i] },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			info, err := os.Stat(candidates[i])
			if err != nil {
				return err.Error()
			}
			return fmt.Sprintf("Upload\n\nFile: %s\nSize: %s\nModified: %s",
				filepath.Base(candidates[i]),
				domain.FormatSize(info.Size()),
				info.ModTime().Format(appConfig.DisplayDateFormat))
		}),
	)
	if err != nil {
		// aborted
		return "", nil
	}
	return candidates[idx], nil
}

// uploadCandidates walks root up to maxDepth, skipping hidden entries.
// A nil extension set accepts every file.
func uploadCandidates(root string, maxDepth int, exts map[string]bool) ([]string, error) {
	root = filepath.Clean(root)
	baseDepth := strings.Count(root, string(filepath.Separator))

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.Count(path, string(filepath.Separator))-baseDepth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if exts != nil && !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// candidateExtensions maps the configured content types back to extensions
func candidateExtensions() map[string]bool {
	if len(appConfig.AllowedTypes) == 0 {
		return nil
	}
	allowed := make(map[string]bool)
	for _, t := range appConfig.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	exts := make(map[string]bool)
	for ext, t := range extensionTypes {
		if allowed[t] {
			exts[ext] = true
		}
	}
	if len(exts) == 0 {
		return nil
	}
	return exts
}
