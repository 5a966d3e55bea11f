package parser

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"UBER *TRIP SAO PAULO", "transporte"},
		{"IFOOD *RESTAURANTE", "alimentacao"},
		{"SUPERMERCADO PAGUE MENOS", "mercado"},
		{"FARMÁCIA SÃO PAULO", "saude"},
		{"NETFLIX.COM", "assinaturas"},
		{"ANUIDADE DIFERENCIADA", "tarifas"},
		{"PAGAMENTO EFETUADO", "pagamento"},
		{"LOJA DESCONHECIDA LTDA", CategoryOther},
	}

	for _, tt := range tests {
		if got := Categorize(tt.desc); got != tt.want {
			t.Errorf("Categorize(%q): got %q, want %q", tt.desc, got, tt.want)
		}
	}
}

func TestCategorize_LongestKeywordWins(t *testing.T) {
	// "supermercado" contains "mercado"; the more specific rule applies.
	if got := Categorize("SUPERMERCADO ZAFFARI"); got != "mercado" {
		t.Errorf("got %q, want mercado", got)
	}
}
