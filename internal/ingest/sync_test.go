package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/docs"
	"docqa/internal/github"
	"docqa/internal/storage"
)

type fakeRepoSource struct {
	files    map[string]string
	commit   string
	fetchErr map[string]error
}

func (f *fakeRepoSource) ListDocs(ctx context.Context) ([]string, error) {
	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeRepoSource) FetchDoc(ctx context.Context, path string) (*github.Document, error) {
	if err := f.fetchErr[path]; err != nil {
		return nil, err
	}
	return &github.Document{Path: path, Content: f.files[path], SHA: "blob-" + path}, nil
}

func (f *fakeRepoSource) LatestCommitSHA(ctx context.Context) (string, error) {
	return f.commit, nil
}

// fakeStore backs both the ingest pipeline and the document registry, keyed
// by document ID.
type fakeStore struct {
	texts map[string][]string
	metas map[string][]storage.ChunkMetadata
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		texts: make(map[string][]string),
		metas: make(map[string][]storage.ChunkMetadata),
	}
}

func (f *fakeStore) Insert(_ context.Context, texts []string, metas []storage.ChunkMetadata) ([]string, error) {
	docID := metas[0].DocumentID
	f.texts[docID] = append(f.texts[docID], texts...)
	f.metas[docID] = append(f.metas[docID], metas...)
	ids := make([]string, len(texts))
	for i := range ids {
		ids[i] = docID
	}
	return ids, nil
}

func (f *fakeStore) ListDocumentIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.metas))
	for id := range f.metas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) GetMetadataSample(ctx context.Context, documentID string) (*storage.ChunkMetadata, error) {
	metas, ok := f.metas[documentID]
	if !ok {
		return nil, storage.ErrDocumentNotFound
	}
	sample := metas[0]
	return &sample, nil
}

func (f *fakeStore) DeleteByDocumentID(ctx context.Context, documentID string) (int, error) {
	deleted := len(f.metas[documentID])
	delete(f.metas, documentID)
	delete(f.texts, documentID)
	return deleted, nil
}

func newTestSyncer(t *testing.T, source RepoSource, store *fakeStore) *Syncer {
	t.Helper()
	splitter, err := chunker.NewSplitter(1000, 200)
	require.NoError(t, err)
	pipeline := NewPipeline(splitter, store, nil)
	return NewSyncer(source, pipeline, docs.NewRegistry(store), nil)
}

func TestSyncAll_IngestsMarkdownAndText(t *testing.T) {
	source := &fakeRepoSource{
		commit: "abc123",
		files: map[string]string{
			"guide.md":  "# Setup Guide\n\nInstall the **dependencies** first.\n",
			"notes.txt": "Plain notes about the rollout.",
		},
	}
	store := newFakeStore()

	result, err := newTestSyncer(t, source, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalDocs)
	assert.Equal(t, 2, result.SuccessfulDocs)
	assert.Empty(t, result.FailedDocs)
	assert.Equal(t, "abc123", result.CommitSHA)
	assert.Greater(t, result.TotalChunks, 0)
	assert.Len(t, store.metas, 2)

	// Markdown markup must not survive into the indexed text.
	for _, texts := range store.texts {
		for _, text := range texts {
			assert.NotContains(t, text, "# ")
			assert.NotContains(t, text, "**")
		}
	}
}

func TestSyncAll_ReplacesPreviousVersionByFilename(t *testing.T) {
	store := newFakeStore()
	store.metas["old-doc"] = []storage.ChunkMetadata{{
		DocumentID: "old-doc",
		Filename:   "guide.md",
		UploadedAt: time.Now().Add(-time.Hour),
	}}
	store.texts["old-doc"] = []string{"stale content"}

	source := &fakeRepoSource{
		commit: "def456",
		files:  map[string]string{"guide.md": "# Setup Guide\n\nFresh content.\n"},
	}

	result, err := newTestSyncer(t, source, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessfulDocs)
	assert.NotContains(t, store.metas, "old-doc", "previous version must be removed")
	require.Len(t, store.metas, 1)
	for _, texts := range store.texts {
		assert.Contains(t, strings.Join(texts, "\n"), "Fresh content")
	}
}

func TestSyncAll_FailedDocumentDoesNotAbortRun(t *testing.T) {
	source := &fakeRepoSource{
		commit: "abc123",
		files: map[string]string{
			"broken.md": "irrelevant",
			"good.txt":  "Usable content.",
		},
		fetchErr: map[string]error{"broken.md": errors.New("403 rate limited")},
	}
	store := newFakeStore()

	result, err := newTestSyncer(t, source, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalDocs)
	assert.Equal(t, 1, result.SuccessfulDocs)
	require.Len(t, result.FailedDocs, 1)
	assert.Equal(t, "broken.md", result.FailedDocs[0].Path)
	assert.Contains(t, result.FailedDocs[0].Reason, "rate limited")
}

func TestSyncAll_EmptyDocumentIsRecordedAsFailed(t *testing.T) {
	source := &fakeRepoSource{
		commit: "abc123",
		files:  map[string]string{"empty.txt": "   \n"},
	}
	store := newFakeStore()

	result, err := newTestSyncer(t, source, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessfulDocs)
	require.Len(t, result.FailedDocs, 1)
	assert.Equal(t, "empty.txt", result.FailedDocs[0].Path)
}
