package pix_test

import (
	"testing"

	"marketplace/internal/domain/pix"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want pix.Address
	}{
		{
			name: "full address",
			in:   "Rua das Flores, 123, Centro, São Paulo - sp, 01000-000",
			want: pix.Address{Street: "Rua das Flores, 123, Centro", City: "São Paulo", State: "SP", PostalCode: "01000-000"},
		},
		{
			name: "city and postal code only",
			in:   "Campinas - SP, 13000-000",
			want: pix.Address{City: "Campinas", State: "SP", PostalCode: "13000-000"},
		},
		{
			name: "no state separator",
			in:   "Av. Brasil, 500, Curitiba, 80000-000",
			want: pix.Address{Street: "Av. Brasil, 500", City: "Curitiba", PostalCode: "80000-000"},
		},
		{
			name: "single segment",
			in:   "Rua sem numero",
			want: pix.Address{Street: "Rua sem numero"},
		},
		{
			name: "empty",
			in:   "  ,  ",
			want: pix.Address{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pix.ParseAddress(tc.in))
		})
	}
}

func TestMerchantCity(t *testing.T) {
	assert.Equal(t, "SP", pix.MerchantCity("São Paulo", "sp"))
	assert.Equal(t, "SAO PAULO", pix.MerchantCity("São Paulo", ""))
	assert.Equal(t, "BRASIL", pix.MerchantCity("", ""))
	assert.Equal(t, "SAO JOSE DOS CA", pix.MerchantCity("São José dos Campos", ""))
}

func TestSanitizeMerchantName(t *testing.T) {
	assert.Equal(t, "MERCADO BOM PRECO", pix.SanitizeMerchantName("Mercado Bom Preço"))
	assert.Equal(t, "ACOUGUE DO ZE", pix.SanitizeMerchantName("  Açougue   do Zé "))
	assert.Equal(t, "CAFE", pix.SanitizeMerchantName("Café☕"))
	assert.Equal(t, "LOJA", pix.SanitizeMerchantName("☕"))
}

func TestSanitizeTxID(t *testing.T) {
	assert.Equal(t, "AB12CD", pix.SanitizeTxID("AB-12 CD"))
	assert.Equal(t, "***", pix.SanitizeTxID(""))
	assert.Len(t, pix.SanitizeTxID("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123"), 25)
}
