package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shoebox/shoebox/internal/blob"
	"github.com/shoebox/shoebox/internal/catalog"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <album> <file>...",
		Short: "Add files to an album",
		Long: `Add files to an album.

The media type is detected from the file extension; files that are neither
images nor videos are skipped. Every file is stored as-is, plus a preview and
a screen-sized rendition for images. Items are added one by one, so a bad
file never blocks the rest of the batch.

Examples:
  shoebox add "Summer 2024" beach.jpg sunset.jpg
  shoebox add "Summer 2024" clips/*.mp4`,
		Args: cobra.MinimumNArgs(2),
		RunE: runAdd,
	}
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <album>",
		Short: "List files in an album",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <album> <file-id>",
		Short: "Move a file to Trash",
		Args:  cobra.ExactArgs(2),
		RunE:  runRm,
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file-id>",
		Short: "Restore a file from Trash to the album it came from",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <album> <file-id>",
		Short: "Remove a file permanently",
		Args:  cobra.ExactArgs(2),
		RunE:  runPurge,
	}
}

func newSetThumbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-thumb <album> <file-id>",
		Short: "Pin a file as the album thumbnail",
		Args:  cobra.ExactArgs(2),
		RunE:  runSetThumb,
	}
}

func newGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <album> <file-id>",
		Short: "Fetch a file's content from the store",
		Long: `Fetch a file's content from the blob store.

By default the original content is written to the file's name in the current
directory. Use --rendition to fetch the preview or screen rendition instead,
and --output to pick the destination ('-' writes to stdout).`,
		Args: cobra.ExactArgs(2),
		RunE: runGet,
	}
	getCmd.Flags().StringP("output", "o", "", "destination path ('-' for stdout)")
	getCmd.Flags().String("rendition", "full", "which rendition to fetch: full, preview or screen")

	return getCmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	var items []catalog.FileItem
	unreadable := 0
	for _, path := range args[1:] {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Failed: %s: %v\n", path, err)
			unreadable++
			continue
		}
		items = append(items, catalog.FileItem{
			Name:    filepath.Base(path),
			Content: content,
		})
	}

	report := &catalog.AddReport{}
	if len(items) > 0 {
		report, err = cat.AddFiles(cmd.Context(), rec.AlbumID, items)
		if err != nil {
			return err
		}
	}

	for _, f := range report.Added {
		fmt.Printf("Added: %s (%s)\n", f.Name, shortToken(string(f.FullToken)))
	}
	for _, s := range report.Skipped {
		fmt.Printf("Skipped: %s (%s)\n", s.Name, s.Reason)
	}
	for _, f := range report.Failed {
		fmt.Printf("Failed: %s: %v\n", f.Name, f.Err)
	}

	fmt.Printf("%d added, %d skipped, %d failed.\n",
		len(report.Added), len(report.Skipped), len(report.Failed)+unreadable)
	return nil
}

func runLs(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	files, err := cat.Files(cmd.Context(), rec.AlbumID)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("No files found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if rec.IsTrash() {
		// Trash listings show where each file came from.
		_, _ = fmt.Fprintln(w, "NAME\tTYPE\tFROM\tFILE ID")
		for _, f := range files {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.MediaType, trashOrigin(cat, f), f.FullToken)
		}
	} else {
		_, _ = fmt.Fprintln(w, "NAME\tTYPE\tFILE ID")
		for _, f := range files {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.MediaType, f.FullToken)
		}
	}
	_ = w.Flush()

	return nil
}

// trashOrigin names the album a trashed file would restore to.
func trashOrigin(cat *catalog.Catalog, f catalog.FileRecord) string {
	if len(f.Provenance) == 0 {
		return "-"
	}
	originID := f.Provenance[len(f.Provenance)-1]
	if origin, err := cat.Album(originID); err == nil {
		return origin.Name
	}
	return originID
}

func runRm(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	if err := cat.MoveToTrash(cmd.Context(), rec.AlbumID, blob.Token(args[1])); err != nil {
		return err
	}

	fmt.Println("File moved to Trash.")
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	target, err := cat.RestoreFromTrash(cmd.Context(), blob.Token(args[0]))
	if err != nil {
		return err
	}

	fmt.Printf("File restored to '%s'.\n", target.Name)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	if err := cat.RemoveForever(cmd.Context(), rec.AlbumID, blob.Token(args[1])); err != nil {
		return err
	}

	fmt.Println("File removed forever.")
	return nil
}

func runSetThumb(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	if err := cat.SetAlbumThumbnail(cmd.Context(), rec.AlbumID, blob.Token(args[1])); err != nil {
		return err
	}

	fmt.Printf("Album '%s' thumbnail set.\n", rec.Name)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	files, err := cat.Files(cmd.Context(), rec.AlbumID)
	if err != nil {
		return err
	}

	token := blob.Token(args[1])
	var file *catalog.FileRecord
	for i := range files {
		if files[i].FullToken == token {
			file = &files[i]
			break
		}
	}
	if file == nil {
		return fmt.Errorf("file %q not found in album '%s'", args[1], rec.Name)
	}

	rendition, _ := cmd.Flags().GetString("rendition")
	fetch := file.FullToken
	switch rendition {
	case "full":
	case "preview":
		fetch = file.PreviewToken
	case "screen":
		fetch = file.ScreenToken
	default:
		return fmt.Errorf("unknown rendition %q (want full, preview or screen)", rendition)
	}

	content, err := cat.Content(cmd.Context(), fetch)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		_, err := os.Stdout.Write(content)
		return err
	}
	if output == "" {
		output = file.Name
	}

	if err := os.WriteFile(output, content, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes).\n", output, len(content))
	return nil
}
