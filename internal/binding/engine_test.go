package binding

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

func testEngine(t *testing.T) Engine {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewEngine(log, "https://certs.example.com")
}

func testTemplate() *domain.TemplateDocument {
	return &domain.TemplateDocument{
		ID:     uuid.New(),
		Name:   "tpl",
		Width:  1000,
		Height: 700,
		CanvasGraph: datatypes.JSON(`[
			{"id":"title","kind":"static","text":"Certificate of Completion","x":500,"y":120,"font_size":40},
			{"id":"name","kind":"bindable","dynamic_key":"name","text":"Recipient Name","x":500,"y":320,"font_size":48},
			{"id":"score","kind":"bindable","dynamic_key":"score","text":"-","x":500,"y":420,"font_size":24},
			{"id":"qr","kind":"verification","x":880,"y":580,"size":120}
		]`),
		PlaceholderKeys: datatypes.JSON(`["name","score"]`),
	}
}

func TestBindSubstitutesRowValues(t *testing.T) {
	e := testEngine(t)
	certID := uuid.New()

	row := domain.DataRow{"name": "Grace Hopper", "score": float64(98.5)}
	artifact, err := e.Bind(context.Background(), testTemplate(), row, certID)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if artifact.CertificateID != certID {
		t.Fatalf("artifact certificate id mismatch")
	}
	if len(artifact.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(artifact.Nodes))
	}

	byID := map[string]ResolvedNode{}
	for _, n := range artifact.Nodes {
		byID[n.ID] = n
	}
	if byID["title"].Text != "Certificate of Completion" {
		t.Fatalf("static node changed: %q", byID["title"].Text)
	}
	if byID["name"].Text != "Grace Hopper" {
		t.Fatalf("name not substituted: %q", byID["name"].Text)
	}
	if byID["score"].Text != "98.5" {
		t.Fatalf("number not stringified: %q", byID["score"].Text)
	}
	if len(byID["qr"].Image) == 0 {
		t.Fatalf("verification node has no image")
	}
}

func TestBindMissingKeyKeepsDefault(t *testing.T) {
	e := testEngine(t)

	row := domain.DataRow{"name": "Grace Hopper"}
	artifact, err := e.Bind(context.Background(), testTemplate(), row, uuid.New())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for _, n := range artifact.Nodes {
		if n.ID == "score" && n.Text != "-" {
			t.Fatalf("missing key should keep template default, got %q", n.Text)
		}
	}
}

func TestBindNilValueKeepsDefault(t *testing.T) {
	e := testEngine(t)

	row := domain.DataRow{"name": "Grace Hopper", "score": nil}
	artifact, err := e.Bind(context.Background(), testTemplate(), row, uuid.New())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for _, n := range artifact.Nodes {
		if n.ID == "score" && n.Text != "-" {
			t.Fatalf("nil value should keep template default, got %q", n.Text)
		}
	}
}

func TestBindCoercesNonScalar(t *testing.T) {
	e := testEngine(t)

	row := domain.DataRow{"name": []any{"a", "b"}, "score": true}
	artifact, err := e.Bind(context.Background(), testTemplate(), row, uuid.New())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	byID := map[string]ResolvedNode{}
	for _, n := range artifact.Nodes {
		byID[n.ID] = n
	}
	if byID["name"].Text != "[a b]" {
		t.Fatalf("non-scalar coercion: %q", byID["name"].Text)
	}
	if byID["score"].Text != "true" {
		t.Fatalf("bool coercion: %q", byID["score"].Text)
	}
}

func TestVerificationImageDeterministic(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	certID := uuid.New()
	style := QRStyle{Size: 120}

	a, err := e.RegenerateVerificationImage(ctx, certID, style)
	if err != nil {
		t.Fatalf("RegenerateVerificationImage: %v", err)
	}
	b, err := e.RegenerateVerificationImage(ctx, certID, style)
	if err != nil {
		t.Fatalf("RegenerateVerificationImage: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same id and style should produce identical image bytes")
	}

	c, err := e.RegenerateVerificationImage(ctx, uuid.New(), style)
	if err != nil {
		t.Fatalf("RegenerateVerificationImage: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatalf("different certificate ids should produce different images")
	}
}

func TestPlaceholderImageNotEmpty(t *testing.T) {
	img := placeholderImage(64)
	if len(img) == 0 {
		t.Fatalf("placeholder image should encode")
	}
}

func TestParseHexColor(t *testing.T) {
	def := parseHexColor("", colorBlack())
	if def != colorBlack() {
		t.Fatalf("empty string should use default")
	}
	c := parseHexColor("#FF8000", colorBlack())
	if c.R != 255 || c.G != 128 || c.B != 0 {
		t.Fatalf("parsed %+v", c)
	}
	if got := parseHexColor("zzzzzz", colorBlack()); got != colorBlack() {
		t.Fatalf("invalid hex should use default, got %+v", got)
	}
}

func colorBlack() color.NRGBA { return color.NRGBA{A: 255} }
