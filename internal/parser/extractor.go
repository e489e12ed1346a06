// Package parser turns fetched storefront pages into product records.
package parser

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/catalogsync/internal/config"
	"github.com/IshaanNene/catalogsync/internal/types"
)

var errMissingTitle = errors.New("product title not found")

// Extractor answers the listing and product queries the crawl needs.
// Absent elements resolve to the per-field fallbacks instead of errors,
// except the product title which every product page must carry.
type Extractor struct {
	sel             config.SelectorConfig
	normalizer      *Normalizer
	defaultCategory string
	logger          *slog.Logger
}

// NewExtractor creates an Extractor for the given selectors.
func NewExtractor(sel config.SelectorConfig, normalizer *Normalizer, defaultCategory string, logger *slog.Logger) *Extractor {
	return &Extractor{
		sel:             sel,
		normalizer:      normalizer,
		defaultCategory: defaultCategory,
		logger:          logger.With("component", "extractor"),
	}
}

// --- Listing mode ---

// CategoryTitle returns the listing heading or the default category name.
func (e *Extractor) CategoryTitle(doc *Document) string {
	if title, ok := doc.Text(e.sel.CategoryTitle); ok && title != "" {
		return title
	}
	return e.defaultCategory
}

// ProductLinks returns the raw href of every product card on a listing page.
func (e *Extractor) ProductLinks(doc *Document) []string {
	var links []string
	doc.Find(e.sel.ProductLink).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links = append(links, strings.TrimSpace(href))
		}
	})
	return links
}

// HasNextPage reports whether the pagination control offers a next page.
func (e *Extractor) HasNextPage(doc *Document) bool {
	return doc.Has(e.sel.NextPage)
}

// --- Product mode ---

// Product extracts a product record from doc. pageURL is only used for
// error reporting and the record's URL field.
func (e *Extractor) Product(doc *Document, pageURL string) (*types.ProductRecord, error) {
	name, ok := doc.Text(e.sel.Title)
	if !ok {
		return nil, &types.ParseError{URL: pageURL, Selector: e.sel.Title, Err: errMissingTitle}
	}

	externalID, err := e.externalID(doc)
	if err != nil {
		return nil, &types.ParseError{URL: pageURL, Selector: e.sel.ExternalIDXPath, Err: err}
	}

	record := &types.ProductRecord{
		URL:           pageURL,
		ExternalID:    externalID,
		Name:          name,
		Brand:         e.brand(doc),
		Price:         e.price(doc, e.sel.PriceNew),
		OriginalPrice: e.price(doc, e.sel.PriceOld),
		Description:   e.description(doc),
		IsAvailable:   !doc.Has(e.sel.NotAvailable),
		Images:        e.images(doc),
		Attributes:    e.attributes(doc),
	}

	e.logger.Debug("product extracted",
		"url", pageURL,
		"external_id", deref(record.ExternalID),
		"images", len(record.Images),
		"attributes", len(record.Attributes),
	)

	return record, nil
}

// externalID reads the value of the hidden offer field.
func (e *Extractor) externalID(doc *Document) (*string, error) {
	value, err := doc.XPathAttr(e.sel.ExternalIDXPath, "value")
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	return &value, nil
}

// brand returns the bold value of the first characteristics row whose
// label mentions the manufacturer.
func (e *Extractor) brand(doc *Document) *string {
	row := doc.Find(e.sel.CharRow).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), e.sel.BrandLabel)
	}).First()
	if row.Length() == 0 {
		return nil
	}

	value, ok := firstText(row, e.sel.Bold)
	if !ok || value == "" {
		return nil
	}
	return &value
}

func (e *Extractor) price(doc *Document, selector string) *float64 {
	text, ok := doc.Text(selector)
	if !ok {
		return nil
	}
	return ParsePrice(text)
}

func (e *Extractor) description(doc *Document) string {
	node := doc.Find(e.sel.Description).First()
	if node.Length() == 0 {
		return ""
	}
	markup, err := node.Html()
	if err != nil {
		e.logger.Warn("description markup unreadable", "error", err)
		return ""
	}
	return markup
}

func (e *Extractor) images(doc *Document) []string {
	var images []string
	doc.Find(e.sel.GalleryImage).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		images = append(images, e.normalizer.Normalize(strings.TrimSpace(src)))
	})
	return images
}

// attributes flattens every attribute group into (group, name, value) rows
// in document order. Rows without a name or a value cell are skipped.
func (e *Extractor) attributes(doc *Document) []types.AttributeRow {
	nameSelector := strings.Join(e.sel.AttributeName, ", ")

	var rows []types.AttributeRow
	doc.Find(e.sel.AttributeGroup).Each(func(_ int, group *goquery.Selection) {
		groupName, ok := firstText(group, e.sel.Bold)
		if !ok {
			return
		}

		group.Find(e.sel.AttributeRow).Each(func(_ int, row *goquery.Selection) {
			name, hasName := firstText(row, nameSelector)
			value, hasValue := firstText(row, e.sel.Bold)
			if !hasName || !hasValue {
				return
			}
			rows = append(rows, types.AttributeRow{
				Group: groupName,
				Name:  name,
				Value: value,
			})
		})
	})
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
