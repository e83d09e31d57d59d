package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

var priorityParts = []string{"contact", "about", "impressum", "kontakt"}

func newTestExtractor() *Extractor {
	return New(priorityParts, zap.NewNop())
}

func addresses(candidates []scraper.EmailCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Address)
	}
	return out
}

func TestExtractPlainText(t *testing.T) {
	html := `<html><body><p>Reach us at sales@acme.example for quotes.</p></body></html>`

	got := newTestExtractor().Extract(html, "https://acme.example/products")

	require.Len(t, got, 1)
	assert.Equal(t, "sales@acme.example", got[0].Address)
	assert.Equal(t, "https://acme.example/products", got[0].SourceURL)
}

func TestExtractMailtoStripsQuery(t *testing.T) {
	html := `<a href="mailto:Info@Acme.example?subject=Hello">write us</a>`

	got := newTestExtractor().Extract(html, "https://acme.example/")

	require.Len(t, got, 1)
	assert.Equal(t, "info@acme.example", got[0].Address)
}

func TestExtractObfuscated(t *testing.T) {
	html := `<p>hr [at] acme [dot] example</p>`

	got := newTestExtractor().Extract(html, "https://acme.example/jobs")

	require.Len(t, got, 1)
	assert.Equal(t, "hr@acme.example", got[0].Address)
}

func TestExtractCloudflareEncoded(t *testing.T) {
	// XOR key 0x42 over "ceo@acme.example".
	encoded := "4221272d0223212f276c273a232f322e27"

	html := `<a class="__cf_email__" data-cfemail="` + encoded + `">[email protected]</a>`

	got := newTestExtractor().Extract(html, "https://acme.example/")

	require.Len(t, got, 1)
	assert.Equal(t, "ceo@acme.example", got[0].Address)
}

func TestExtractCaseNormalizationDedupe(t *testing.T) {
	html := `<p>CONTACT@acme.example or contact@acme.example</p>`

	got := newTestExtractor().Extract(html, "https://acme.example/contact")

	require.Len(t, got, 1)
	assert.Equal(t, "contact@acme.example", got[0].Address)
}

func TestExtractIdempotent(t *testing.T) {
	html := `<p>a@acme.example b@acme.example <a href="mailto:c@acme.example">c</a></p>`
	e := newTestExtractor()

	first := e.Extract(html, "https://acme.example/contact")
	second := e.Extract(html, "https://acme.example/contact")

	assert.Equal(t, first, second)
}

func TestExtractEmptyAndMalformed(t *testing.T) {
	e := newTestExtractor()

	assert.Empty(t, e.Extract("", "https://acme.example/"))
	assert.Empty(t, e.Extract("   \n\t", "https://acme.example/"))
	assert.Empty(t, e.Extract("<div><<<<not html", "https://acme.example/"))
}

func TestExtractRejections(t *testing.T) {
	cases := []struct {
		name string
		addr string
	}{
		{"image asset", "icon@2x.png"},
		{"png domain", "logo@assets.example.png"},
		{"numeric local part", "123456@acme.example"},
		{"long hex local part", "d41d8cd98f00b204e9800998ecf8427e@acme.example"},
		{"placeholder domain", "info@example.com"},
		{"noreply prefix", "noreply@acme.example"},
		{"postmaster prefix", "postmaster@acme.example"},
		{"dotless domain", "root@localhost"},
	}
	e := newTestExtractor()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract("<p>"+tc.addr+"</p>", "https://acme.example/")
			assert.Empty(t, got, tc.addr)
		})
	}
}

func TestExtractSkipsScriptBlocks(t *testing.T) {
	html := `<script>var x = "tracker@telemetry.example";</script><p>real@acme.example</p>`

	got := newTestExtractor().Extract(html, "https://acme.example/")

	assert.Equal(t, []string{"real@acme.example"}, addresses(got))
}

func TestScoring(t *testing.T) {
	e := newTestExtractor()

	plain := e.Extract(`<p>x zqw sales@acme.example</p>`, "https://acme.example/products")
	require.Len(t, plain, 1)
	assert.Equal(t, baseScore, plain[0].Score)

	onContact := e.Extract(`<p>Contact: sales@acme.example</p>`, "https://acme.example/contact")
	require.Len(t, onContact, 1)
	assert.Equal(t, baseScore+priorityPageBonus+keywordBonus, onContact[0].Score)

	viaMailto := e.Extract(`<a href="mailto:sales@acme.example">x</a>`, "https://acme.example/products")
	require.Len(t, viaMailto, 1)
	assert.Equal(t, baseScore+mailtoBonus, viaMailto[0].Score)

	assert.LessOrEqual(t, Scorer{PriorityParts: priorityParts}.Score("a@b.cd", "https://acme.example/contact", true, true), 100)
}

func TestKeywordProximityBonus(t *testing.T) {
	e := newTestExtractor()

	near := e.Extract(`<p>email: sales@acme.example</p>`, "https://acme.example/products")
	require.Len(t, near, 1)
	assert.Equal(t, baseScore+keywordBonus, near[0].Score)
}

func TestMergeKeepsHighestScoreEarliestSource(t *testing.T) {
	pageA := []scraper.EmailCandidate{
		{Address: "info@acme.example", SourceURL: "https://acme.example/", Score: 10},
	}
	pageB := []scraper.EmailCandidate{
		{Address: "info@acme.example", SourceURL: "https://acme.example/contact", Score: 60},
		{Address: "sales@acme.example", SourceURL: "https://acme.example/contact", Score: 60},
	}
	pageC := []scraper.EmailCandidate{
		{Address: "sales@acme.example", SourceURL: "https://acme.example/about", Score: 60},
	}

	got := Merge(pageA, pageB, pageC)

	require.Len(t, got, 2)
	assert.Equal(t, "info@acme.example", got[0].Address)
	assert.Equal(t, 60, got[0].Score)
	assert.Equal(t, "https://acme.example/contact", got[0].SourceURL)
	// Equal score keeps the earlier source.
	assert.Equal(t, "https://acme.example/contact", got[1].SourceURL)
}

type fakeRenderer struct {
	html string
	err  error
	hits int
}

func (r *fakeRenderer) Render(context.Context, string) (string, error) {
	r.hits++
	return r.html, r.err
}

func TestHybridRendersOnlyWhenStaticEmpty(t *testing.T) {
	renderer := &fakeRenderer{html: `<p>js@acme.example</p>`}
	h := NewHybrid(newTestExtractor(), renderer, zap.NewNop())

	static := h.Extract(context.Background(), `<p>plain@acme.example</p>`, "https://acme.example/")
	assert.Equal(t, []string{"plain@acme.example"}, addresses(static))
	assert.Zero(t, renderer.hits)

	rendered := h.Extract(context.Background(), `<div id="app"></div>`, "https://acme.example/")
	assert.Equal(t, []string{"js@acme.example"}, addresses(rendered))
	assert.Equal(t, 1, renderer.hits)
}

func TestHybridSwallowsRenderErrors(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("tab crashed")}
	h := NewHybrid(newTestExtractor(), renderer, zap.NewNop())

	got := h.Extract(context.Background(), `<div id="app"></div>`, "https://acme.example/")

	assert.Empty(t, got)
}

func TestHybridSkipsEmptyPages(t *testing.T) {
	renderer := &fakeRenderer{html: `<p>js@acme.example</p>`}
	h := NewHybrid(newTestExtractor(), renderer, zap.NewNop())

	got := h.Extract(context.Background(), "", "https://acme.example/")

	assert.Empty(t, got)
	assert.Zero(t, renderer.hits)
}
