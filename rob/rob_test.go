package rob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestSummary(t *testing.T) {
	a := &Assessment{
		Domains: map[string]DomainResult{
			DomainRandomization: {Name: DomainRandomization, Judgment: "low"},
			DomainDeviations:    {Name: DomainDeviations, Judgment: "some concerns"},
			DomainMissingData:   {Name: DomainMissingData}, // no judgment
		},
	}
	summary := a.Summary()
	if summary["rob_randomization"] != "low" {
		t.Errorf("rob_randomization = %q", summary["rob_randomization"])
	}
	if summary["rob_deviations"] != "some concerns" {
		t.Errorf("rob_deviations = %q", summary["rob_deviations"])
	}
	if _, ok := summary["rob_missing_data"]; ok {
		t.Error("domain without judgment should be omitted")
	}
}

func TestDomainOrderComplete(t *testing.T) {
	if len(DomainOrder) != 6 {
		t.Fatalf("DomainOrder = %d domains, want 6", len(DomainOrder))
	}
	if DomainOrder[len(DomainOrder)-1] != DomainOverall {
		t.Errorf("overall must come last, got %q", DomainOrder[len(DomainOrder)-1])
	}
	for _, domain := range DomainOrder {
		if DomainDescriptions[domain] == "" {
			t.Errorf("domain %q has no description", domain)
		}
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{}, nil); err == nil {
		t.Error("expected error for missing BaseURL")
	}
	c, err := NewClient(ClientConfig{BaseURL: "http://localhost:8001/"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.cfg.BaseURL != "http://localhost:8001" {
		t.Errorf("trailing slash not trimmed: %q", c.cfg.BaseURL)
	}
	if c.cfg.Model != DefaultModel {
		t.Errorf("model default = %q", c.cfg.Model)
	}
}

func TestAssess(t *testing.T) {
	manuscript := filepath.Join(t.TempDir(), "trial.pdf")
	if err := os.WriteFile(manuscript, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assess" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		if len(r.MultipartForm.File["manuscript"]) != 1 {
			t.Error("missing manuscript part")
		}
		if got := r.FormValue("model"); got != "gpt-4o" {
			t.Errorf("model field = %q", got)
		}
		if got := r.FormValue("temperature"); got != "0" {
			t.Errorf("temperature field = %q", got)
		}

		json.NewEncoder(w).Encode(Assessment{
			Domains: map[string]DomainResult{
				DomainRandomization: {Name: DomainRandomization, Judgment: "low"},
				DomainOverall:       {Name: DomainOverall, Judgment: "some concerns"},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.Assess(context.Background(), manuscript)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	// Missing response fields are backfilled client-side.
	if a.Manuscript != "trial.pdf" {
		t.Errorf("Manuscript = %q", a.Manuscript)
	}
	if a.Model != DefaultModel {
		t.Errorf("Model = %q", a.Model)
	}
	if a.Overall != "some concerns" {
		t.Errorf("Overall = %q, want the overall domain judgment", a.Overall)
	}
}

func TestAssessServiceError(t *testing.T) {
	manuscript := filepath.Join(t.TempDir(), "trial.pdf")
	if err := os.WriteFile(manuscript, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Assess(context.Background(), manuscript); err == nil {
		t.Error("expected error for 503 response")
	}
}
