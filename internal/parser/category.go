package parser

import (
	"github.com/cloudflare/ahocorasick"
)

// Best-effort category labeling over merchant descriptions. A single
// Aho-Corasick pass matches every keyword at once; the longest matched
// keyword wins so "supermercado" beats "mercado".

const CategoryOther = "outros"

type categoryRule struct {
	keyword  string
	category string
}

var categoryRules = []categoryRule{
	{"uber", "transporte"},
	{"99app", "transporte"},
	{"99pop", "transporte"},
	{"taxi", "transporte"},
	{"posto", "transporte"},
	{"estacionamento", "transporte"},
	{"ifood", "alimentacao"},
	{"rappi", "alimentacao"},
	{"restaurante", "alimentacao"},
	{"padaria", "alimentacao"},
	{"lanchonete", "alimentacao"},
	{"pizzaria", "alimentacao"},
	{"supermercado", "mercado"},
	{"mercado", "mercado"},
	{"atacadao", "mercado"},
	{"hortifruti", "mercado"},
	{"farmacia", "saude"},
	{"drogaria", "saude"},
	{"clinica", "saude"},
	{"laboratorio", "saude"},
	{"netflix", "assinaturas"},
	{"spotify", "assinaturas"},
	{"prime video", "assinaturas"},
	{"hbo", "assinaturas"},
	{"disney", "assinaturas"},
	{"hotel", "viagem"},
	{"airbnb", "viagem"},
	{"latam", "viagem"},
	{"gol linhas", "viagem"},
	{"azul linhas", "viagem"},
	{"anuidade", "tarifas"},
	{"juros", "tarifas"},
	{"encargos", "tarifas"},
	{"iof", "tarifas"},
	{"multa", "tarifas"},
	{"pagamento", "pagamento"},
}

var categoryMatcher *ahocorasick.Matcher

func init() {
	keywords := make([]string, len(categoryRules))
	for i, r := range categoryRules {
		keywords[i] = r.keyword
	}
	categoryMatcher = ahocorasick.NewStringMatcher(keywords)
}

// Categorize returns a best-effort category label for a description.
func Categorize(desc string) string {
	folded := normalizeKey(desc)
	hits := categoryMatcher.Match([]byte(folded))
	if len(hits) == 0 {
		return CategoryOther
	}
	best := -1
	bestLen := -1
	for _, h := range hits {
		if l := len(categoryRules[h].keyword); l > bestLen {
			best = h
			bestLen = l
		}
	}
	return categoryRules[best].category
}
