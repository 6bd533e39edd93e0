package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/kardex-api/internal/application/dto"
)

// catalog archivo de carga inicial: productos con precios y stock de apertura, más ofertas.
type catalog struct {
	Products []catalogProduct `yaml:"products"`
	Offers   []catalogOffer   `yaml:"offers"`
}

type catalogProduct struct {
	SKU          string         `yaml:"sku"`
	Name         string         `yaml:"name"`
	Category     string         `yaml:"category"`
	Virtual      bool           `yaml:"virtual"`
	InitialStock int64          `yaml:"initial_stock"`
	Cost         string         `yaml:"cost"`
	Prices       []catalogPrice `yaml:"prices"`
}

type catalogPrice struct {
	Level       string `yaml:"level"`
	Price       string `yaml:"price"`
	WithoutTax  string `yaml:"without_tax"`
	MinQuantity int64  `yaml:"min_quantity"`
}

type catalogOffer struct {
	Name           string        `yaml:"name"`
	Status         string        `yaml:"status"`
	Percentage     string        `yaml:"percentage"`
	Amount         string        `yaml:"amount"`
	SKUs           []string      `yaml:"skus"`
	Categories     []string      `yaml:"categories"`
	ExcludedSKUs   []string      `yaml:"excluded_skus"`
	Start          time.Time     `yaml:"start"`
	End            time.Time     `yaml:"end"`
	Priority       int           `yaml:"priority"`
	MaxUses        int           `yaml:"max_uses"`
	MaxPerCustomer int           `yaml:"max_per_customer"`
	Rules          []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// parseCatalog decodifica el YAML. Con latin1 el archivo se transcodifica desde ISO-8859-1.
func parseCatalog(r io.Reader, latin1 bool) (*catalog, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	var c catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *catalog) validate() error {
	seen := make(map[string]bool, len(c.Products))
	for i, p := range c.Products {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			return fmt.Errorf("producto %d: sku vacío", i+1)
		}
		if seen[sku] {
			return fmt.Errorf("producto %d: sku %s repetido", i+1, sku)
		}
		seen[sku] = true
		if p.InitialStock < 0 {
			return fmt.Errorf("producto %s: initial_stock negativo", sku)
		}
	}
	for i, o := range c.Offers {
		for _, sku := range append(append([]string{}, o.SKUs...), o.ExcludedSKUs...) {
			if !seen[sku] {
				return fmt.Errorf("oferta %d: sku %s no está en el catálogo", i+1, sku)
			}
		}
	}
	return nil
}

func (p catalogProduct) request() (dto.CreateProductRequest, error) {
	req := dto.CreateProductRequest{
		SKU:             strings.TrimSpace(p.SKU),
		Name:            p.Name,
		CategoryID:      p.Category,
		HasVirtualStock: p.Virtual,
	}
	for _, pr := range p.Prices {
		price, err := parseDecimal(pr.Price)
		if err != nil {
			return req, fmt.Errorf("producto %s nivel %s: %w", req.SKU, pr.Level, err)
		}
		withoutTax, err := parseDecimal(pr.WithoutTax)
		if err != nil {
			return req, fmt.Errorf("producto %s nivel %s: %w", req.SKU, pr.Level, err)
		}
		req.Prices = append(req.Prices, dto.PriceEntryRequest{
			PriceLevelID:    pr.Level,
			Price:           price,
			PriceWithoutTax: withoutTax,
			MinQuantity:     pr.MinQuantity,
		})
	}
	return req, nil
}

// request traduce SKUs a IDs con productIDs (sku -> id).
func (o catalogOffer) request(productIDs map[string]string) (dto.CreateOfferRequest, error) {
	req := dto.CreateOfferRequest{
		Name:               o.Name,
		Status:             o.Status,
		CategoryIDs:        o.Categories,
		StartDate:          o.Start,
		EndDate:            o.End,
		Priority:           o.Priority,
		TotalMaxUses:       o.MaxUses,
		MaxUsesPerCustomer: o.MaxPerCustomer,
	}
	if o.Percentage != "" {
		v, err := decimal.NewFromString(o.Percentage)
		if err != nil {
			return req, fmt.Errorf("oferta %s: percentage: %w", o.Name, err)
		}
		req.Percentage = &v
	}
	if o.Amount != "" {
		v, err := decimal.NewFromString(o.Amount)
		if err != nil {
			return req, fmt.Errorf("oferta %s: amount: %w", o.Name, err)
		}
		req.Amount = &v
	}
	for _, sku := range o.SKUs {
		id, ok := productIDs[sku]
		if !ok {
			return req, fmt.Errorf("oferta %s: sku %s sin producto", o.Name, sku)
		}
		req.ProductIDs = append(req.ProductIDs, id)
	}
	for _, sku := range o.ExcludedSKUs {
		id, ok := productIDs[sku]
		if !ok {
			return req, fmt.Errorf("oferta %s: sku %s sin producto", o.Name, sku)
		}
		req.ExcludedProductIDs = append(req.ExcludedProductIDs, id)
	}
	for _, r := range o.Rules {
		v, err := parseDecimal(r.Value)
		if err != nil {
			return req, fmt.Errorf("oferta %s regla %s: %w", o.Name, r.Type, err)
		}
		req.Rules = append(req.Rules, dto.RuleRequest{Type: r.Type, Value: v})
	}
	return req, nil
}

// parseDecimal acepta vacío como cero.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
