package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studykwork/internal/model"
	"studykwork/internal/storage"
)

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(url string) error {
	r.removed = append(r.removed, url)
	return r.err
}

func encode(t *testing.T, event model.ListingEvent) []byte {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestImageCleanupWorker_HandleDeletedRemovesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, 1024)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.jpg"), []byte("x"), 0o644))

	w := NewImageCleanupWorker(nil, store, "listing.events")
	err = w.Handle(context.Background(), encode(t, model.ListingEvent{
		Type:      model.ListingEventDeleted,
		ListingID: 7,
		ImageURLs: []string{"/uploads/a.jpg", "https://images.unsplash.com/photo.jpg"},
	}))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "a.jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "keep.jpg"))
	assert.NoError(t, err)
}

func TestImageCleanupWorker_HandleSkipsRemoteAndOtherEvents(t *testing.T) {
	remover := &recordingRemover{}
	w := NewImageCleanupWorker(nil, remover, "listing.events")

	require.NoError(t, w.Handle(context.Background(), encode(t, model.ListingEvent{
		Type:      model.ListingEventCreated,
		ImageURLs: []string{"/uploads/new.jpg"},
	})))
	require.NoError(t, w.Handle(context.Background(), encode(t, model.ListingEvent{
		Type:      model.ListingEventDeleted,
		ImageURLs: []string{"https://cdn.example.com/x.jpg", "/uploads/old.jpg"},
	})))

	assert.Equal(t, []string{"/uploads/old.jpg"}, remover.removed)
}

func TestImageCleanupWorker_HandleErrors(t *testing.T) {
	w := NewImageCleanupWorker(nil, &recordingRemover{}, "listing.events")
	err := w.Handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, errUndecodable)

	failing := &recordingRemover{err: errors.New("disk gone")}
	w = NewImageCleanupWorker(nil, failing, "listing.events")
	err = w.Handle(context.Background(), encode(t, model.ListingEvent{
		Type:      model.ListingEventDeleted,
		ImageURLs: []string{"/uploads/a.jpg", "/uploads/b.jpg"},
	}))
	assert.Error(t, err)
	assert.Len(t, failing.removed, 2)
}

func TestImageCleanupWorker_CloseWithoutStart(t *testing.T) {
	w := NewImageCleanupWorker(nil, &recordingRemover{}, "listing.events")
	w.Close()
}
