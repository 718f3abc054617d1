package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentification(t *testing.T) {
	text := `{"productName": "Nike Air Jordan 1", "brand": "Nike", "confidence": 0.9}`
	ident, err := parseIdentification(text)
	require.NoError(t, err)
	assert.Equal(t, "Nike Air Jordan 1", ident.ProductName)
	assert.Equal(t, "Nike", ident.Brand)
	assert.Equal(t, 0.9, ident.Confidence)
}

func TestParseIdentificationStripsMarkdownFence(t *testing.T) {
	text := "```json\n{\"productName\": \"Acme Runner 2000\", \"confidence\": 0.8}\n```"
	ident, err := parseIdentification(text)
	require.NoError(t, err)
	assert.Equal(t, "Acme Runner 2000", ident.ProductName)
}

func TestParseIdentificationExtractsEmbeddedObject(t *testing.T) {
	text := `Here is the result: {"productName": "Acme Runner 2000", "confidence": 1.4} Hope this helps!`
	ident, err := parseIdentification(text)
	require.NoError(t, err)
	assert.Equal(t, "Acme Runner 2000", ident.ProductName)
	// Self-reported confidence is clamped into [0,1].
	assert.Equal(t, 1.0, ident.Confidence)
}

func TestParseIdentificationRejectsNonJSON(t *testing.T) {
	_, err := parseIdentification("I could not identify this item.")
	assert.Error(t, err)
}

func TestParseIdentificationRequiresProductName(t *testing.T) {
	_, err := parseIdentification(`{"brand": "Nike"}`)
	assert.Error(t, err)
}
