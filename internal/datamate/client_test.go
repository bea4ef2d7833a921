package datamate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/five82/datamate/internal/query"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("bare host parsed as %q", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL accepted url without host")
	}
}

func TestClient_ListEndpointsEncodeQueries(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUserAgent, gotRequestID, gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case pathDatasets:
			_ = json.NewEncoder(w).Encode(query.Page[Dataset]{Content: []Dataset{{ID: "ds-1", Name: "cats"}}, TotalElements: 31})
		case pathAnnotation:
			_ = json.NewEncoder(w).Encode(query.Page[AnnotationTask]{Content: []AnnotationTask{{ID: "an-1"}}, TotalElements: 1})
		case pathCleansing:
			_, _ = w.Write([]byte(`{"content":[{"id":"cl-1","srcDatasetName":"cats","progress":{"process":42.5,"totalFileNum":8,"finishedFileNum":3}}],"totalElements":1}`))
		case pathOperators:
			_ = json.NewEncoder(w).Encode(query.Page[Operator]{Content: []Operator{{ID: "op-1"}}, TotalElements: 1})
		case pathKnowledgeBases:
			_ = json.NewEncoder(w).Encode(query.Page[KnowledgeBase]{Content: []KnowledgeBase{{ID: "kb-1"}}, TotalElements: 1})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	req := query.Params{
		Keywords: "cats",
		Filters:  map[string][]string{"status": {"ACTIVE", "DRAFT"}, "type": {query.AllValue}},
		Page:     3,
		PageSize: 20,
	}.Request()

	datasets, err := c.ListDatasets(ctx, req)
	if err != nil {
		t.Fatalf("ListDatasets returned error: %v", err)
	}
	if len(datasets.Content) != 1 || datasets.Content[0].ID != "ds-1" || datasets.TotalElements != 31 {
		t.Fatalf("ListDatasets page = %#v, want ds-1 total=31", datasets)
	}
	if gotQuery.Get("keywords") != "cats" ||
		gotQuery.Get("page") != "2" ||
		gotQuery.Get("size") != "20" ||
		gotQuery.Get("status") != "ACTIVE" ||
		gotQuery.Has("type") {
		t.Fatalf("ListDatasets query = %v, want params encoded", gotQuery)
	}
	if !strings.HasPrefix(gotUserAgent, "datamate/") {
		t.Fatalf("User-Agent = %q, want datamate/*", gotUserAgent)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Fatalf("X-Request-ID = %q, want uuid: %v", gotRequestID, err)
	}
	firstID := gotRequestID

	cleansing, err := c.ListCleansingTasks(ctx, query.Params{Page: 1, PageSize: 10}.Request())
	if err != nil {
		t.Fatalf("ListCleansingTasks returned error: %v", err)
	}
	if len(cleansing.Content) != 1 {
		t.Fatalf("ListCleansingTasks content = %#v, want 1 task", cleansing.Content)
	}
	task := cleansing.Content[0]
	if task.DatasetName != "cats" || task.Progress.Process != 42.5 || task.Progress.FinishedNum != 3 {
		t.Fatalf("cleansing task decoded as %#v", task)
	}
	if gotQuery.Has("keywords") {
		t.Fatalf("empty keywords should be omitted, got %v", gotQuery)
	}
	if gotRequestID == firstID {
		t.Fatalf("X-Request-ID reused across requests")
	}

	if _, err := c.ListAnnotationTasks(ctx, req); err != nil {
		t.Fatalf("ListAnnotationTasks returned error: %v", err)
	}
	if _, err := c.ListOperators(ctx, req); err != nil {
		t.Fatalf("ListOperators returned error: %v", err)
	}
	if _, err := c.ListKnowledgeBases(ctx, req); err != nil {
		t.Fatalf("ListKnowledgeBases returned error: %v", err)
	}
}

func TestClient_GetDataset(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathDatasets+"/ds 1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"dataset not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(Dataset{ID: "ds 1", Name: "birds"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ds, err := c.GetDataset(context.Background(), " ds 1 ")
	if err != nil {
		t.Fatalf("GetDataset returned error: %v", err)
	}
	if ds.Name != "birds" {
		t.Fatalf("GetDataset = %#v, want birds", ds)
	}

	_, err = c.GetDataset(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("GetDataset error = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), "dataset not found") {
		t.Fatalf("error %q should carry the server message", err)
	}

	if _, err := c.GetDataset(context.Background(), "  "); err == nil {
		t.Fatalf("GetDataset accepted empty id")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathDatasets:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case pathOperators:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":" upstream down "}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req := query.Params{Page: 1, PageSize: 10}.Request()

	_, err = c.ListDatasets(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("ListDatasets error = %v, want decode response error", err)
	}

	_, err = c.ListCleansingTasks(context.Background(), req)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ListCleansingTasks error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Path != pathCleansing || apiErr.Message != "" {
		t.Fatalf("APIError = %#v", apiErr)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("error text = %q, want status 500", err)
	}
	if IsNotFound(err) {
		t.Fatalf("500 reported as not found")
	}

	_, err = c.ListOperators(context.Background(), req)
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
		t.Fatalf("ListOperators error = %v, want message from error field", err)
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListDatasets(context.Background(), query.Params{Page: 1, PageSize: 10}.Request())
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("ListDatasets error = %v, want execute request error", err)
	}
}
