package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shoebox/shoebox/internal/catalog"
)

func newAlbumCmd() *cobra.Command {
	albumCmd := &cobra.Command{
		Use:   "album",
		Short: "Manage albums",
		Long: `Manage albums in the catalog.

Album commands accept either the album name or the album id; names win when
both match. The Trash album is managed by shoebox itself and cannot be
created or deleted.

Examples:
  # List all albums
  shoebox album list

  # Create a new album
  shoebox album create "Summer 2024"

  # Delete an album and everything in it
  shoebox album delete "Summer 2024"`,
	}

	// List albums
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all albums",
		RunE:    runAlbumList,
	}
	albumCmd.AddCommand(listCmd)

	// Create album
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new album",
		Args:  cobra.ExactArgs(1),
		RunE:  runAlbumCreate,
	}
	albumCmd.AddCommand(createCmd)

	// Delete album
	deleteCmd := &cobra.Command{
		Use:     "delete <album>",
		Aliases: []string{"rm"},
		Short:   "Delete an album and all files in it",
		Args:    cobra.ExactArgs(1),
		RunE:    runAlbumDelete,
	}
	albumCmd.AddCommand(deleteCmd)

	// Wipe all albums
	wipeCmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every album except Trash",
		Args:  cobra.NoArgs,
		RunE:  runAlbumWipe,
	}
	wipeCmd.Flags().Bool("yes", false, "confirm wiping all albums")
	albumCmd.AddCommand(wipeCmd)

	return albumCmd
}

// resolveAlbum accepts an album name or an album id. Names win when both
// match.
func resolveAlbum(cat *catalog.Catalog, arg string) (catalog.AlbumRecord, error) {
	if rec, err := cat.AlbumByName(arg); err == nil {
		return rec, nil
	}
	rec, err := cat.Album(arg)
	if err != nil {
		return catalog.AlbumRecord{}, fmt.Errorf("album %q not found", arg)
	}
	return rec, nil
}

func runAlbumList(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	albums := cat.Albums()
	if len(albums) == 0 {
		fmt.Println("No albums found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tID\tTHUMB")
	for _, a := range albums {
		thumb := "-"
		if a.ThumbToken != "" {
			thumb = shortToken(string(a.ThumbToken))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.AlbumID, thumb)
	}
	_ = w.Flush()

	return nil
}

func runAlbumCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := cat.CreateAlbum(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Printf("Album '%s' created (%s).\n", rec.Name, rec.AlbumID)
	return nil
}

func runAlbumDelete(cmd *cobra.Command, args []string) error {
	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := resolveAlbum(cat, args[0])
	if err != nil {
		return err
	}

	if err := cat.DeleteAlbum(cmd.Context(), rec.AlbumID); err != nil {
		return err
	}

	fmt.Printf("Album '%s' deleted.\n", rec.Name)
	return nil
}

func runAlbumWipe(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("this deletes every album except Trash; re-run with --yes to confirm")
	}

	cat, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cat.DeleteAllAlbums(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("All albums deleted.")
	return nil
}

// shortToken abbreviates a blob token for table output.
func shortToken(tok string) string {
	if len(tok) <= 12 {
		return tok
	}
	return tok[:12]
}
