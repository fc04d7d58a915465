package store

import "github.com/shopspring/decimal"

// StockRecord is the optional stock tracking of a product or variant.
type StockRecord struct {
	Quantity int    `json:"quantity"`
	MinStock int    `json:"minStock"`
	Unit     string `json:"unit,omitempty"`
}

// Variant is one sellable variant of a product.
type Variant struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock *StockRecord    `json:"stock,omitempty"`
}

// Product is the product form being edited.
type Product struct {
	Name         string          `json:"name"`
	CategoryID   string          `json:"categoryId"`
	Price        decimal.Decimal `json:"price"`
	CapitalPrice decimal.Decimal `json:"capitalPrice"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	ImageURI     string          `json:"imageUri"`
	Description  string          `json:"description"`
	StockEnabled bool            `json:"stockEnabled"`
	Stock        *StockRecord    `json:"stock,omitempty"`
	Variants     []Variant       `json:"variants"`
}

func initialProduct() Product {
	return Product{Price: decimal.Zero, CapitalPrice: decimal.Zero, Variants: []Variant{}}
}

func cloneVariant(v Variant) Variant {
	v.Stock = clonePtr(v.Stock)
	return v
}

func cloneProduct(p Product) Product {
	p.Stock = clonePtr(p.Stock)
	p.Variants = cloneSlice(p.Variants, cloneVariant)
	return p
}

// ProductDraft backs the add/edit product flow.
type ProductDraft struct {
	*Draft[Product]
}

// NewProductDraft returns an empty product draft.
func NewProductDraft() *ProductDraft {
	return &ProductDraft{NewDraft(initialProduct, cloneProduct)}
}

func (d *ProductDraft) SetName(v string) {
	d.Update(func(p *Product) { p.Name = v })
}

func (d *ProductDraft) SetCategoryID(v string) {
	d.Update(func(p *Product) { p.CategoryID = v })
}

func (d *ProductDraft) SetPrice(v decimal.Decimal) {
	d.Update(func(p *Product) { p.Price = v })
}

func (d *ProductDraft) SetCapitalPrice(v decimal.Decimal) {
	d.Update(func(p *Product) { p.CapitalPrice = v })
}

func (d *ProductDraft) SetSKU(v string) {
	d.Update(func(p *Product) { p.SKU = v })
}

func (d *ProductDraft) SetBarcode(v string) {
	d.Update(func(p *Product) { p.Barcode = v })
}

func (d *ProductDraft) SetImageURI(v string) {
	d.Update(func(p *Product) { p.ImageURI = v })
}

func (d *ProductDraft) SetDescription(v string) {
	d.Update(func(p *Product) { p.Description = v })
}

func (d *ProductDraft) SetStockEnabled(v bool) {
	d.Update(func(p *Product) { p.StockEnabled = v })
}

func (d *ProductDraft) SetStock(v *StockRecord) {
	d.Update(func(p *Product) { p.Stock = clonePtr(v) })
}

// SetVariants replaces the variants with fn(previous). fn runs under the
// draft lock, so concurrent appends are not lost.
func (d *ProductDraft) SetVariants(fn func(prev []Variant) []Variant) {
	d.Update(func(p *Product) {
		p.Variants = cloneSlice(fn(cloneSlice(p.Variants, cloneVariant)), cloneVariant)
	})
}

// ReplaceVariants sets the variants to a fixed list.
func (d *ProductDraft) ReplaceVariants(vs []Variant) {
	d.SetVariants(func([]Variant) []Variant { return vs })
}
