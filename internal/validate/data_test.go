package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeData() ProductData {
	return ProductData{
		Name:            "Acme Runner 2000 Trail Edition",
		Brand:           "Acme",
		Model:           "Runner 2000",
		Category:        "footwear",
		RetailPriceText: "$120",
		ResellPriceText: "$80 - $100",
	}
}

func TestValidateProductDataComplete(t *testing.T) {
	v := New(Defaults())
	res := v.ValidateProductData(completeData())
	assert.True(t, res.IsValid)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Empty(t, res.Issues)
}

func TestValidateProductDataMissingBrand(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.Brand = ""
	res := v.ValidateProductData(d)
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.Contains(t, res.Issues, "brand could not be identified")
}

func TestValidateProductDataPlaceholderName(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.Name = "Unknown Product"
	res := v.ValidateProductData(d)
	assert.Contains(t, res.Issues, "product name is missing or a placeholder")
}

func TestValidateProductDataShortName(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.Name = "Shoe"
	res := v.ValidateProductData(d)
	assert.Contains(t, res.Issues, "product name is very short")
}

func TestValidateProductDataMalformedPrices(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.RetailPriceText = "around 120 dollars"
	d.ResellPriceText = ""
	res := v.ValidateProductData(d)
	// Two independent price penalties.
	assert.InDelta(t, 0.70, res.Confidence, 0.001)
}

func TestValidateProductDataResaleAboveRetail(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.RetailPriceText = "$100"
	d.ResellPriceText = "$150"
	res := v.ValidateProductData(d)
	assert.Contains(t, res.Issues, "resale price exceeds retail price; verify market data")
	// Margin of +50% is inside the sanity band, so only the inversion
	// penalty applies.
	assert.InDelta(t, 0.90, res.Confidence, 0.001)
}

func TestValidateProductDataImplausibleMargin(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.RetailPriceText = "$100"
	d.ResellPriceText = "$300"
	res := v.ValidateProductData(d)
	assert.Contains(t, res.Issues, "resale price exceeds retail price; verify market data")
	assert.Contains(t, res.Issues, "profit margin is outside the plausible band")
}

func TestValidateProductDataUnknownCategory(t *testing.T) {
	v := New(Defaults())
	d := completeData()
	d.Category = "mystery"
	res := v.ValidateProductData(d)
	assert.Contains(t, res.Issues, "category is not recognized")
}
