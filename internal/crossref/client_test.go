package crossref

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchResponse = `{
  "status": "ok",
  "message": {
    "items": [
      {
        "DOI": "10.1234/journal.2020.001",
        "title": ["Deep Learning for Protein Folding"],
        "abstract": "We present a model for protein structure prediction.",
        "URL": "https://doi.org/10.1234/journal.2020.001",
        "subject": ["Biochemistry"],
        "author": [
          {"given": "Grace", "family": "Hopper"},
          {"family": "Curie"}
        ],
        "published": {"date-parts": [[2020, 3, 9]]}
      },
      {
        "DOI": "10.1234/untitled",
        "title": []
      },
      {
        "DOI": "10.1234/journal.2019.042",
        "title": ["Year Only Paper"],
        "subtitle": ["A subtitle used as the summary"],
        "link": [{"URL": "https://publisher.example.org/042.pdf"}],
        "published": {"date-parts": [[2019]]}
      }
    ]
  }
}`

func TestSearchWorks(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = map[string]string{
			"query":  r.URL.Query().Get("query"),
			"rows":   r.URL.Query().Get("rows"),
			"filter": r.URL.Query().Get("filter"),
			"sort":   r.URL.Query().Get("sort"),
			"order":  r.URL.Query().Get("order"),
		}
		w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, ContactEmail: "contact@example.org"})
	papers, err := client.SearchWorks(context.Background(), "protein folding", 10)
	if err != nil {
		t.Fatalf("SearchWorks: %v", err)
	}

	if !strings.Contains(gotUA, "mailto:contact@example.org") {
		t.Fatalf("polite-pool contact missing from User-Agent: %q", gotUA)
	}
	if gotQuery["query"] != "protein folding" || gotQuery["rows"] != "10" {
		t.Fatalf("unexpected query parameters: %v", gotQuery)
	}
	if gotQuery["filter"] != "type:journal-article" || gotQuery["sort"] != "relevance" || gotQuery["order"] != "desc" {
		t.Fatalf("unexpected query parameters: %v", gotQuery)
	}

	// The untitled item is dropped.
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}

	first := papers[0]
	if first.ID != "doi:10.1234_journal.2020.001" {
		t.Fatalf("unexpected id: %q", first.ID)
	}
	if first.Title != "Deep Learning for Protein Folding" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Grace Hopper" || first.Authors[1] != "Curie" {
		t.Fatalf("unexpected authors: %v", first.Authors)
	}
	if first.Published != "2020-03-09" {
		t.Fatalf("unexpected published date: %q", first.Published)
	}
	if first.Source != "crossref" {
		t.Fatalf("unexpected source: %q", first.Source)
	}

	second := papers[1]
	if second.Published != "2019" {
		t.Fatalf("partial dates must degrade to the year, got %q", second.Published)
	}
	if second.Summary != "A subtitle used as the summary" {
		t.Fatalf("subtitle must stand in for a missing abstract, got %q", second.Summary)
	}
	if second.PDFURL != "https://publisher.example.org/042.pdf" {
		t.Fatalf("link array must back the missing URL, got %q", second.PDFURL)
	}
}

func TestGetWork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works/10.1234/journal.2020.001" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		w.Write([]byte(`{
		  "status": "ok",
		  "message": {
		    "DOI": "10.1234/journal.2020.001",
		    "title": ["Deep Learning for Protein Folding"],
		    "URL": "https://doi.org/10.1234/journal.2020.001",
		    "published": {"date-parts": [[2020, 3, 9]]}
		  }
		}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	p, err := client.GetWork(context.Background(), "10.1234/journal.2020.001")
	if err != nil {
		t.Fatalf("GetWork: %v", err)
	}
	if p.ID != "doi:10.1234_journal.2020.001" || p.DOI != "10.1234/journal.2020.001" {
		t.Fatalf("unexpected identifiers: id=%q doi=%q", p.ID, p.DOI)
	}
}

func TestGetWorkNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`Resource not found.`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	if _, err := client.GetWork(context.Background(), "10.9999/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchWorksServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	if _, err := client.SearchWorks(context.Background(), "anything", 5); err == nil {
		t.Fatal("expected an error")
	}
}
