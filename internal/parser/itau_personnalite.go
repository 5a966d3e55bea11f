package parser

import (
	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// ItauPersonnaliteStrategy handles the Personnalité tier of Itaú cards. The
// row format matches the generic Itaú layout, but the header carries the
// tier's own branding and a concierge section the generic layout lacks.
//
// Applicability is deliberately stricter than the parent: the generic Itaú
// markers alone are not enough, a Personnalité-specific marker must also be
// present. Otherwise this variant would claim every Itaú invoice.
type ItauPersonnaliteStrategy struct {
	ItauStrategy
}

func (p *ItauPersonnaliteStrategy) Issuer() models.Issuer {
	return models.IssuerItauPersonnalite
}

func (p *ItauPersonnaliteStrategy) IsApplicable(text string) bool {
	if !p.ItauStrategy.IsApplicable(text) {
		return false
	}
	return containsMarker(text, "personnalite", "itau uniclass personnalite")
}
