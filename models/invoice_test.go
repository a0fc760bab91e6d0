package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceUpdateTitle(t *testing.T) {
	inv := &Invoice{}
	assert.ErrorIs(t, inv.UpdateTitle("2026-1-2-0"), ErrMissingID)
	assert.Empty(t, inv.Title)

	inv.ID = 42
	require.NoError(t, inv.UpdateTitle("2026-1-2-0"))
	assert.Equal(t, "2026-1-2-0-042", inv.Title)
	assert.Equal(t, "F2026-1-2-0-042.pdf", inv.PDFFilename())
}

func TestInvoiceComputeAmount(t *testing.T) {
	q := sampleQuote() // total 4850
	inv := &Invoice{Percentage: d("33.3")}
	inv.ComputeAmount(q)
	assert.True(t, d("1615.05").Equal(inv.Amount), "got %s", inv.Amount)
}
