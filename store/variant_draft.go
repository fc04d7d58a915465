package store

// VariantBarcode is the scan-to-assign barcode form of one variant.
type VariantBarcode struct {
	VariantName string `json:"variantName"`
	Barcode     string `json:"barcode"`
	SKU         string `json:"sku"`
}

// VariantBarcodeDraft carries a scanned barcode back to the variant form.
type VariantBarcodeDraft struct {
	*Draft[VariantBarcode]
}

func NewVariantBarcodeDraft() *VariantBarcodeDraft {
	return &VariantBarcodeDraft{NewDraft(
		func() VariantBarcode { return VariantBarcode{} },
		func(v VariantBarcode) VariantBarcode { return v },
	)}
}

func (d *VariantBarcodeDraft) SetVariantName(v string) {
	d.Update(func(b *VariantBarcode) { b.VariantName = v })
}

func (d *VariantBarcodeDraft) SetBarcode(v string) {
	d.Update(func(b *VariantBarcode) { b.Barcode = v })
}

func (d *VariantBarcodeDraft) SetSKU(v string) {
	d.Update(func(b *VariantBarcode) { b.SKU = v })
}
