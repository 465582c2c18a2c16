package docproc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medevidence/rctx/paper"
)

const layoutTEI = `<TEI xmlns="http://www.tei-c.org/ns/1.0">
 <teiHeader>
  <fileDesc><titleStmt><title level="a" type="main">A Small Trial</title></titleStmt></fileDesc>
  <profileDesc><abstract><div><p>A short abstract.</p></div></abstract></profileDesc>
 </teiHeader>
 <text>
  <body>
   <div><head>Methods</head><p>Participants were randomized.</p></div>
  </body>
 </text>
</TEI>`

func layoutServer(t *testing.T, tei string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/isalive":
			w.WriteHeader(http.StatusOK)
		case "/api/processFulltextDocument":
			w.Write([]byte(tei))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLayoutMode(t *testing.T) {
	srv := layoutServer(t, layoutTEI)

	p := New(Config{
		ChunkSize:    2000,
		ChunkOverlap: 400,
		UseLayout:    true,
		LayoutURL:    srv.URL,
		LayoutWait:   time.Second,
	}, nil, nil)

	units, pp, err := p.Load(context.Background(), tempPDF(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pp == nil {
		t.Fatal("layout mode should return the parsed paper")
	}
	if pp.Title != "A Small Trial" {
		t.Errorf("Title = %q", pp.Title)
	}

	// Header, abstract, and the methods section.
	if len(units) != 3 {
		t.Fatalf("units = %d, want 3", len(units))
	}
	if units[0].Meta.SectionType != paper.SectionHeader {
		t.Errorf("units[0] = %+v", units[0].Meta)
	}
	if units[2].Meta.SectionTitle != "Methods" {
		t.Errorf("units[2] = %+v", units[2].Meta)
	}
}

func TestNewKeepsExplicitConfig(t *testing.T) {
	// A partially specified config keeps its explicit fields while the
	// zero ones default individually.
	p := New(Config{UseLayout: false}, nil, nil)
	if p.client != nil {
		t.Error("layout client built despite UseLayout false")
	}
	if p.splitter.chunkSize != 2000 {
		t.Errorf("chunkSize = %d, want default 2000", p.splitter.chunkSize)
	}
	if p.splitter.overlap != 400 {
		t.Errorf("overlap = %d, want default 400", p.splitter.overlap)
	}
	if p.cfg.FigureConfig.Zoom != 2.0 {
		t.Errorf("figure zoom = %v, want default 2.0", p.cfg.FigureConfig.Zoom)
	}
}

func TestLoadLayoutDisabled(t *testing.T) {
	// Without layout and without a readable PDF, Load has nothing.
	p := New(Config{ChunkSize: 2000, ChunkOverlap: 400, UseLayout: false}, nil, nil)
	if _, _, err := p.Load(context.Background(), tempPDF(t)); err == nil {
		t.Error("expected error: the stub PDF has no extractable pages")
	}
}

func TestLoadFallsBackWhenServerDown(t *testing.T) {
	srv := layoutServer(t, layoutTEI)
	srv.Close() // no layout server, and the stub PDF is unreadable

	p := New(Config{
		ChunkSize:    2000,
		ChunkOverlap: 400,
		UseLayout:    true,
		LayoutURL:    srv.URL,
		LayoutWait:   time.Second,
	}, nil, nil)

	_, pp, err := p.Load(context.Background(), tempPDF(t))
	if err == nil {
		t.Error("expected error when fallback cannot read the PDF either")
	}
	if pp != nil {
		t.Error("no paper should be returned on failure")
	}
}

func TestLoadBadTEIFallsBack(t *testing.T) {
	srv := layoutServer(t, "<TEI><unclosed")

	p := New(Config{
		ChunkSize:    2000,
		ChunkOverlap: 400,
		UseLayout:    true,
		LayoutURL:    srv.URL,
		LayoutWait:   time.Second,
	}, nil, nil)

	// The layout parse fails, and the stub PDF defeats the page
	// fallback too; the error must come from the fallback, not a panic.
	if _, _, err := p.Load(context.Background(), tempPDF(t)); err == nil {
		t.Error("expected error")
	}
}
