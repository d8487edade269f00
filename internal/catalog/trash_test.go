package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveToTrash_PushesProvenance(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Active")
	require.NoError(t, err)

	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "gone.jpg", Content: []byte("bye")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken

	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))

	files, err := cat.Files(ctx, rec.AlbumID)
	require.NoError(t, err)
	assert.Empty(t, files)

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, "gone.jpg", trashed[0].Name)
	assert.Equal(t, []string{rec.AlbumID}, trashed[0].Provenance)
}

func TestMoveToTrash_FromTrashForbidden(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)

	err = cat.MoveToTrash(ctx, trash.AlbumID, "whatever")
	assert.ErrorIs(t, err, ErrTrashProtected)
}

func TestMoveToTrash_UnknownAlbum(t *testing.T) {
	cat, _ := newTestCatalog(t)
	err := cat.MoveToTrash(context.Background(), "a0missing", "tok")
	assert.ErrorIs(t, err, ErrAlbumNotFound)
}

func TestMoveToTrash_UnknownFile(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Empty")
	require.NoError(t, err)

	err = cat.MoveToTrash(ctx, rec.AlbumID, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

// Catalogs written by older tools recorded the owning album on the file at
// add time. The removal push is guarded so such records do not collect a
// duplicate entry.
func TestMoveToTrash_NoDoublePushForSeededProvenance(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Legacy")
	require.NoError(t, err)
	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "old.jpg", Content: []byte("legacy")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken

	cat.docs[rec.AlbumID].files[0].Provenance = []string{rec.AlbumID}

	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, []string{rec.AlbumID}, trashed[0].Provenance)
}

func TestMoveToTrash_TrashStaysSorted(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	one, err := cat.CreateAlbum(ctx, "One")
	require.NoError(t, err)
	two, err := cat.CreateAlbum(ctx, "Two")
	require.NoError(t, err)

	ra, err := cat.AddFiles(ctx, one.AlbumID, []FileItem{
		{Name: "zeta.jpg", Content: []byte("z")},
	})
	require.NoError(t, err)
	rb, err := cat.AddFiles(ctx, two.AlbumID, []FileItem{
		{Name: "alpha.jpg", Content: []byte("a")},
	})
	require.NoError(t, err)

	require.NoError(t, cat.MoveToTrash(ctx, one.AlbumID, ra.Added[0].FullToken))
	require.NoError(t, cat.MoveToTrash(ctx, two.AlbumID, rb.Added[0].FullToken))

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	require.Len(t, trashed, 2)
	assert.Equal(t, "alpha.jpg", trashed[0].Name)
	assert.Equal(t, "zeta.jpg", trashed[1].Name)
}

func TestRestoreFromTrash_RoundTripRestoresRecordExactly(t *testing.T) {
	ctx := context.Background()
	cat, store := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Home")
	require.NoError(t, err)
	_, err = cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "back.jpg", Content: []byte("boomerang")},
	})
	require.NoError(t, err)

	before, err := cat.Files(ctx, rec.AlbumID)
	require.NoError(t, err)
	require.Len(t, before, 1)
	tok := before[0].FullToken

	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))
	target, err := cat.RestoreFromTrash(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, rec.AlbumID, target.AlbumID)

	after, err := cat.Files(ctx, rec.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	assert.Empty(t, trashed)

	// Both hops persisted.
	persisted, err := reopen(t, store).Files(ctx, rec.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, before, persisted)
}

func TestRestoreFromTrash_UnknownFile(t *testing.T) {
	cat, _ := newTestCatalog(t)
	_, err := cat.RestoreFromTrash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestRestoreFromTrash_NoProvenance(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Source")
	require.NoError(t, err)
	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "lost.jpg", Content: []byte("origin unknown")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken
	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	cat.docs[trash.AlbumID].files[0].Provenance = nil

	_, err = cat.RestoreFromTrash(ctx, tok)
	assert.ErrorIs(t, err, ErrNoProvenance)

	// The file stays in Trash untouched.
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	assert.Len(t, trashed, 1)
}

func TestRestoreFromTrash_TargetAlbumGone(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Vanishing")
	require.NoError(t, err)
	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "orphan.jpg", Content: []byte("stranded")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken
	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))
	require.NoError(t, cat.DeleteAlbum(ctx, rec.AlbumID))

	_, err = cat.RestoreFromTrash(ctx, tok)
	assert.ErrorIs(t, err, ErrAlbumNotFound)

	// The file keeps its place and its provenance for a later retry.
	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, []string{rec.AlbumID}, trashed[0].Provenance)
}

// A provenance stack deeper than one entry unwinds most recent first.
func TestRestoreFromTrash_StackOrder(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	first, err := cat.CreateAlbum(ctx, "First home")
	require.NoError(t, err)
	second, err := cat.CreateAlbum(ctx, "Second home")
	require.NoError(t, err)

	report, err := cat.AddFiles(ctx, first.AlbumID, []FileItem{
		{Name: "mover.jpg", Content: []byte("around")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken
	require.NoError(t, cat.MoveToTrash(ctx, first.AlbumID, tok))

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	cat.docs[trash.AlbumID].files[0].Provenance = []string{first.AlbumID, second.AlbumID}

	target, err := cat.RestoreFromTrash(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, second.AlbumID, target.AlbumID)

	files, err := cat.Files(ctx, second.AlbumID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, []string{first.AlbumID}, files[0].Provenance)

	// Trashing again pushes the new origin on top.
	require.NoError(t, cat.MoveToTrash(ctx, second.AlbumID, tok))
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, []string{first.AlbumID, second.AlbumID}, trashed[0].Provenance)
}

func TestRemoveForever_FromTrash(t *testing.T) {
	ctx := context.Background()
	cat, store := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Purge")
	require.NoError(t, err)
	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "gone.jpg", Content: []byte("for good")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken
	require.NoError(t, cat.MoveToTrash(ctx, rec.AlbumID, tok))

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	require.NoError(t, cat.RemoveForever(ctx, trash.AlbumID, tok))

	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	assert.Empty(t, trashed)

	// Content blobs stay behind; only the record is gone.
	_, err = store.Get(ctx, tok)
	assert.NoError(t, err)
}

func TestRemoveForever_DirectlyFromAlbum(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Direct")
	require.NoError(t, err)
	report, err := cat.AddFiles(ctx, rec.AlbumID, []FileItem{
		{Name: "skip.jpg", Content: []byte("no detour")},
	})
	require.NoError(t, err)
	tok := report.Added[0].FullToken

	require.NoError(t, cat.RemoveForever(ctx, rec.AlbumID, tok))

	files, err := cat.Files(ctx, rec.AlbumID)
	require.NoError(t, err)
	assert.Empty(t, files)

	trash, err := cat.AlbumByName(TrashAlbumName)
	require.NoError(t, err)
	trashed, err := cat.Files(ctx, trash.AlbumID)
	require.NoError(t, err)
	assert.Empty(t, trashed)
}

func TestRemoveForever_UnknownFile(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	rec, err := cat.CreateAlbum(ctx, "Empty")
	require.NoError(t, err)

	err = cat.RemoveForever(ctx, rec.AlbumID, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
