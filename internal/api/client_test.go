// internal/api/client_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtlab/drillboard/internal/handlers"
)

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080")

	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected baseURL=http://localhost:8080, got %s", c.baseURL)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080/")
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.Healthcheck(); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := NewClient("http://localhost:59999") // unlikely to be listening
	if err := c.Healthcheck(); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.Healthcheck(); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestClient_AgainstServer(t *testing.T) {
	f := newFixture(t, true)
	c := NewClient(f.server.URL)

	raw, err := c.Command(handlers.CmdEntityAdd, "player", "S", "400", "250")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	var res handlers.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("bad result: %v", err)
	}
	if len(res.IDs) != 1 {
		t.Fatalf("expected one id, got %v", res.IDs)
	}

	doc, err := c.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if !strings.Contains(string(doc), `"name": "S"`) {
		t.Errorf("expected player in document, got %s", doc)
	}

	if err := c.Save("warmup"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := c.Command(handlers.CmdDocumentClear); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := c.Open("warmup"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := c.Import(snap); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
}

func TestClient_ErrorCarriesMessage(t *testing.T) {
	f := newFixture(t, false)
	c := NewClient(f.server.URL)

	_, err := c.Command(handlers.CmdEntityRename, "ghost", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected status and message in error, got %v", err)
	}
}
