package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	require.NoError(t, idx.EnsureCollection(context.Background(), 384))
	require.Len(t, *calls, 3)
	create := (*calls)[1]
	assert.Equal(t, http.MethodPut, create.method)
	assert.Equal(t, "/collections/test", create.path)
	vectors := create.body["vectors"].(map[string]any)
	assert.Equal(t, float64(384), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollection_Exists(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{}}`))
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	require.NoError(t, idx.EnsureCollection(context.Background(), 384))
	assert.Len(t, *calls, 1)
}

func TestUpsert_SkipsChunksWithoutVectors(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	err := idx.Upsert(context.Background(), []*domain.Chunk{
		{ID: "7f1c0c3e-0000-4000-8000-000000000001", DocumentID: "d1", Content: "hello", Embedding: []float32{0.1, 0.2}},
		{ID: "7f1c0c3e-0000-4000-8000-000000000002", DocumentID: "d1", Content: "no vector"},
	})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	points := (*calls)[0].body["points"].([]any)
	assert.Len(t, points, 1)
	assert.Equal(t, "/collections/test/points", (*calls)[0].path)
}

func TestSearch_DecodesPayload(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/test/points/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":[
			{"id":"c1","score":0.92,"payload":{"document_id":"d1","document_seq":3,"filename":"faq.txt","position":2,"content":"Interviews last 30 minutes."}}
		]}`))
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	res, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "c1", res[0].Chunk.ID)
	assert.Equal(t, int64(3), res[0].Chunk.DocumentSeq)
	assert.Equal(t, 2, res[0].Chunk.Position)
	assert.Equal(t, "faq.txt", res[0].Chunk.Filename)
	assert.InDelta(t, 0.92, res[0].Score, 1e-9)
}

func TestSearch_ServerErrorIsTransient(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	_, err := idx.Search(context.Background(), []float32{1}, 5)
	require.Error(t, err)
	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.True(t, domain.IsTransient(err))
}

func TestDeleteByDocument_FiltersOnDocumentID(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{}}`))
	})
	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "test"})

	require.NoError(t, idx.DeleteByDocument(context.Background(), "d1"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/collections/test/points/delete", (*calls)[0].path)
	filter := (*calls)[0].body["filter"].(map[string]any)
	must := filter["must"].([]any)[0].(map[string]any)
	assert.Equal(t, "document_id", must["key"])
}
