package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/docs"
	"docqa/internal/ingest"
	"docqa/internal/rag"
)

type fakeAsker struct {
	answer   *rag.Answer
	err      error
	gotQuery string
	gotTopK  int
}

func (f *fakeAsker) Ask(ctx context.Context, query string, topK int) (*rag.Answer, error) {
	f.gotQuery = query
	f.gotTopK = topK
	return f.answer, f.err
}

type fakeIngester struct {
	result *ingest.Result
	err    error
}

func (f *fakeIngester) IngestText(ctx context.Context, text, filename string, fileSize int64) (*ingest.Result, error) {
	return f.result, f.err
}

type fakeDocumentStore struct {
	infos   []docs.DocumentInfo
	deleted int
}

func (f *fakeDocumentStore) List(ctx context.Context) ([]docs.DocumentInfo, error) {
	return f.infos, nil
}

func (f *fakeDocumentStore) Remove(ctx context.Context, documentID string) (int, error) {
	return f.deleted, nil
}

func TestAskHandler_AppliesDefaultTopK(t *testing.T) {
	asker := &fakeAsker{answer: &rag.Answer{Answer: "ok", Sources: []rag.Source{}}}
	handler := makeAskHandler(asker, 4)

	_, out, err := handler(context.Background(), nil, AskDocsInput{Query: "what is the policy?"})
	require.NoError(t, err)

	assert.Equal(t, 4, asker.gotTopK)
	assert.Equal(t, "what is the policy?", asker.gotQuery)
	assert.Equal(t, "ok", out.Answer)
}

func TestAskHandler_ExplicitTopKWins(t *testing.T) {
	asker := &fakeAsker{answer: &rag.Answer{Answer: "ok", Sources: []rag.Source{}}}
	handler := makeAskHandler(asker, 4)

	_, _, err := handler(context.Background(), nil, AskDocsInput{Query: "q", TopK: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, asker.gotTopK)
}

func TestAskHandler_EmptyKnowledgeBaseRefusal(t *testing.T) {
	asker := &fakeAsker{answer: &rag.Answer{
		Answer:       rag.NoInformationAnswer,
		Sources:      []rag.Source{},
		ContextFound: false,
	}}
	handler := makeAskHandler(asker, 4)

	_, out, err := handler(context.Background(), nil, AskDocsInput{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, rag.NoInformationAnswer, out.Answer)
	assert.False(t, out.ContextFound)
	assert.NotNil(t, out.Sources)
	assert.Empty(t, out.Sources)
}

func TestIngestHandler_RejectsEmptyFilename(t *testing.T) {
	handler := makeIngestHandler(&fakeIngester{})

	_, _, err := handler(context.Background(), nil, IngestTextInput{Text: "content", Filename: "   "})
	assert.Error(t, err)
}

func TestIngestHandler_RejectsEmptyText(t *testing.T) {
	handler := makeIngestHandler(&fakeIngester{err: ingest.ErrNoContent})

	_, _, err := handler(context.Background(), nil, IngestTextInput{Text: "", Filename: "notes.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extractable text")
}

func TestListHandler_EmptyIndexIsNotAnError(t *testing.T) {
	handler := makeListHandler(&fakeDocumentStore{})

	_, out, err := handler(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)

	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Documents)
}

func TestRemoveHandler_ReportsFound(t *testing.T) {
	handler := makeRemoveHandler(&fakeDocumentStore{deleted: 5})

	_, out, err := handler(context.Background(), nil, RemoveDocumentInput{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.ChunksDeleted)
	assert.True(t, out.Found)
}

func TestRemoveHandler_UnknownDocumentIsNotAnError(t *testing.T) {
	handler := makeRemoveHandler(&fakeDocumentStore{deleted: 0})

	_, out, err := handler(context.Background(), nil, RemoveDocumentInput{DocumentID: "never-seen"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ChunksDeleted)
	assert.False(t, out.Found)
}
