package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"5.5", "R$ 5,50"},
		{"999.999", "R$ 1.000,00"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.8", "R$ 1.234.567,80"},
		{"-500", "-R$ 500,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Nome", "Contato"}, [][]string{{"Maria", "9999"}, {"Jo"}})

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "Nome")
	assert.Contains(t, lines[0], "Contato")
	assert.Contains(t, out, "Maria")
	assert.Contains(t, out, "9999")
	assert.Contains(t, out, "Jo")
}
