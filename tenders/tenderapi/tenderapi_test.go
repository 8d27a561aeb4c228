package tenderapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchAllPagesThroughFeed(t *testing.T) {
	var seenKeys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKeys = append(seenKeys, r.Header.Get("X-Api-Key"))
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"items":[{"id":"1","title":"A"},{"id":"2","title":"B"}],"nextPage":2}`)
		case "2":
			fmt.Fprint(w, `{"items":[{"id":"3","title":"C"}],"nextPage":null}`)
		default:
			http.Error(w, "unexpected page", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 2, 5*time.Second)
	items, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[2].ID != "3" {
		t.Fatalf("last item = %s, want 3", items[2].ID)
	}
	for _, k := range seenKeys {
		if k != "secret" {
			t.Fatalf("api key header = %q", k)
		}
	}
}

func TestFetchAllFailsMidScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"items":[{"id":"1","title":"A"}],"nextPage":2}`)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 100, 5*time.Second)
	if _, err := c.FetchAll(context.Background()); err == nil {
		t.Fatal("mid-scan failure should fail the whole fetch")
	}
}
