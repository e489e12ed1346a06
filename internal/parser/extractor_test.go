package parser

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/catalogsync/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<!DOCTYPE html>
<html>
<body>
    <h1>  Ноутбуки  </h1>
    <div class="catalog">
        <div class="item-card"><a class="item-card__title" href="/product/asus-x515/">ASUS X515</a></div>
        <div class="item-card"><a class="item-card__title" href="https://2cent.ru/product/hp-250/">HP 250</a></div>
        <div class="item-card"><a class="item-card__title" href="/product/lenovo-v15/">Lenovo V15</a></div>
    </div>
    <ul class="pagination">
        <li class="active"><a href="?p=1">1</a></li>
        <li><a href="?p=2">2</a></li>
        <li class="next"><a href="?p=2">&raquo;</a></li>
    </ul>
</body>
</html>`

const productHTML = `<!DOCTYPE html>
<html>
<body>
    <form><input type="hidden" name="offer" value="48213"></form>
    <h1 class="product-title">Ноутбук ASUS X515EA-BQ1189
    </h1>
    <div class="product-gallery-top">
        <img src="/storage/photo/1.jpg">
        <img src="https://cdn.2cent.ru/photo/2.jpg">
        <img alt="placeholder">
    </div>
    <div class="prices">
        <span class="rs-price-new">1&nbsp;234,50 ₽</span>
        <span class="rs-price-old">1 500 ₽</span>
    </div>
    <ul class="product-chars">
        <li><span class="col-6">Гарантия</span> <span class="fw-bold">12 мес.</span></li>
        <li><span class="col-6">Производитель</span> <span class="fw-bold">ASUS</span></li>
    </ul>
    <div id="tab-description"><p>Лёгкий <b>ноутбук</b></p></div>
    <div id="tab-property">
        <div>
            <div class="fw-bold">Экран</div>
            <ul class="product-chars">
                <li><div class="col-sm-7">Диагональ</div><div class="col-sm-5 fw-bold">15.6"</div></li>
                <li><div class="col-6">Разрешение</div><div class="fw-bold">1920x1080</div></li>
                <li><div class="col-sm-7">Без значения</div></li>
            </ul>
        </div>
        <div>
            <div class="fw-bold">Питание</div>
            <ul class="product-chars">
                <li><div class="col-6">Ёмкость</div><div class="fw-bold">42 Вт*ч</div></li>
                <li><div class="fw-bold">Только значение</div></li>
            </ul>
        </div>
    </div>
</body>
</html>`

const sparseProductHTML = `<!DOCTYPE html>
<html>
<body>
    <h1 class="product-title">Мышь без бренда</h1>
    <span class="item-card__not-available">Нет в наличии</span>
    <span class="rs-price-new">по запросу</span>
    <ul class="product-chars">
        <li><span class="col-6">Цвет</span> <span class="fw-bold">Чёрный</span></li>
    </ul>
</body>
</html>`

func newTestExtractor() *Extractor {
	return NewExtractor(config.DefaultSelectors(), NewNormalizer("https://2cent.ru"), "Без названия", testLogger)
}

func mustDocument(t *testing.T, body string) *Document {
	t.Helper()
	doc, err := NewDocument([]byte(body))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// --- Listing mode ---

func TestCategoryTitle(t *testing.T) {
	e := newTestExtractor()

	if got := e.CategoryTitle(mustDocument(t, listingHTML)); got != "Ноутбуки" {
		t.Errorf("expected 'Ноутбуки', got %q", got)
	}
	if got := e.CategoryTitle(mustDocument(t, "<html><body><p>no heading</p></body></html>")); got != "Без названия" {
		t.Errorf("expected default title, got %q", got)
	}
}

func TestProductLinks(t *testing.T) {
	e := newTestExtractor()
	links := e.ProductLinks(mustDocument(t, listingHTML))

	expected := []string{"/product/asus-x515/", "https://2cent.ru/product/hp-250/", "/product/lenovo-v15/"}
	if len(links) != len(expected) {
		t.Fatalf("expected %d links, got %d: %v", len(expected), len(links), links)
	}
	for i, want := range expected {
		if links[i] != want {
			t.Errorf("link %d: expected %q, got %q", i, want, links[i])
		}
	}
}

func TestHasNextPage(t *testing.T) {
	e := newTestExtractor()

	if !e.HasNextPage(mustDocument(t, listingHTML)) {
		t.Error("expected next page on listing with .next")
	}
	last := strings.Replace(listingHTML, `<li class="next">`, `<li class="disabled">`, 1)
	if e.HasNextPage(mustDocument(t, last)) {
		t.Error("expected no next page once .next is gone")
	}
}

// --- Product mode ---

func TestProductFullRecord(t *testing.T) {
	e := newTestExtractor()
	rec, err := e.Product(mustDocument(t, productHTML), "https://2cent.ru/product/asus-x515/")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if rec.ExternalID == nil || *rec.ExternalID != "48213" {
		t.Errorf("expected external id 48213, got %v", rec.ExternalID)
	}
	if rec.Name != "Ноутбук ASUS X515EA-BQ1189" {
		t.Errorf("unexpected name %q", rec.Name)
	}
	if rec.Brand == nil || *rec.Brand != "ASUS" {
		t.Errorf("expected brand ASUS, got %v", rec.Brand)
	}
	if rec.Price == nil || *rec.Price != 1234.50 {
		t.Errorf("expected price 1234.50, got %v", rec.Price)
	}
	if rec.OriginalPrice == nil || *rec.OriginalPrice != 1500 {
		t.Errorf("expected original price 1500, got %v", rec.OriginalPrice)
	}
	if !rec.IsAvailable {
		t.Error("expected product to be available")
	}
	if !strings.Contains(rec.Description, "<b>ноутбук</b>") {
		t.Errorf("expected inner markup in description, got %q", rec.Description)
	}

	expectedImages := []string{"https://2cent.ru/storage/photo/1.jpg", "https://cdn.2cent.ru/photo/2.jpg"}
	if len(rec.Images) != len(expectedImages) {
		t.Fatalf("expected %d images, got %v", len(expectedImages), rec.Images)
	}
	for i, want := range expectedImages {
		if rec.Images[i] != want {
			t.Errorf("image %d: expected %q, got %q", i, want, rec.Images[i])
		}
	}

	expectedAttrs := []struct{ group, name, value string }{
		{"Экран", "Диагональ", `15.6"`},
		{"Экран", "Разрешение", "1920x1080"},
		{"Питание", "Ёмкость", "42 Вт*ч"},
	}
	if len(rec.Attributes) != len(expectedAttrs) {
		t.Fatalf("expected %d attributes, got %+v", len(expectedAttrs), rec.Attributes)
	}
	for i, want := range expectedAttrs {
		got := rec.Attributes[i]
		if got.Group != want.group || got.Name != want.name || got.Value != want.value {
			t.Errorf("attribute %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestProductFallbacks(t *testing.T) {
	e := newTestExtractor()
	rec, err := e.Product(mustDocument(t, sparseProductHTML), "https://2cent.ru/product/mouse/")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if rec.ExternalID != nil {
		t.Errorf("expected nil external id, got %q", *rec.ExternalID)
	}
	if rec.Brand != nil {
		t.Errorf("expected nil brand without manufacturer row, got %q", *rec.Brand)
	}
	if rec.Price != nil {
		t.Errorf("expected nil price for text without digits, got %v", *rec.Price)
	}
	if rec.OriginalPrice != nil {
		t.Errorf("expected nil original price when element absent, got %v", *rec.OriginalPrice)
	}
	if rec.Description != "" {
		t.Errorf("expected empty description, got %q", rec.Description)
	}
	if rec.IsAvailable {
		t.Error("expected product to be unavailable")
	}
	if len(rec.Images) != 0 || len(rec.Attributes) != 0 {
		t.Errorf("expected no images or attributes, got %v / %v", rec.Images, rec.Attributes)
	}
}

func TestProductMissingTitle(t *testing.T) {
	e := newTestExtractor()
	_, err := e.Product(mustDocument(t, "<html><body><h1>Категория</h1></body></html>"), "https://2cent.ru/x/")
	if err == nil {
		t.Fatal("expected error when product title is missing")
	}
	if !strings.Contains(err.Error(), "h1.product-title") {
		t.Errorf("expected selector in error, got %v", err)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"1 234,50 ₽", ptr(1234.50)},
		{"1 234,50 ₽", ptr(1234.50)},
		{"990 руб.", ptr(990)},
		{"12.5", ptr(12.5)},
		{"по запросу", nil},
		{"", nil},
		{"1.234.50", nil},
		{"1.234,50 ₽", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePrice(tt.input)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected nil, got %v", *got)
			case tt.want != nil && got == nil:
				t.Errorf("expected %v, got nil", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("expected %v, got %v", *tt.want, *got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer("https://2cent.ru")
	tests := []struct {
		input, want string
	}{
		{"/catalog/noutbuki/", "https://2cent.ru/catalog/noutbuki/"},
		{"https://2cent.ru/product/1/", "https://2cent.ru/product/1/"},
		{"http://other.example/img.png", "http://other.example/img.png"},
		{"catalog/x", "https://2cent.rucatalog/x"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestXPathAttrInvalidExpression(t *testing.T) {
	doc := mustDocument(t, productHTML)
	if _, err := doc.XPathAttr("//input[@name=", "value"); err == nil {
		t.Error("expected error for malformed xpath")
	}
}

func ptr(f float64) *float64 { return &f }
