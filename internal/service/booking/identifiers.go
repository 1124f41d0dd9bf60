package booking

import (
	"github.com/Domenick1991/airreserve/internal/randsrc"
)

const (
	identifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	PNRLength          = 6
	ReferenceLength    = 10
)

// IdentifierGenerator draws PNR and booking-reference candidates. Uniqueness is
// decided by the store; the generator only has to be uniform over the alphabet.
type IdentifierGenerator struct {
	rnd randsrc.Source
}

func NewIdentifierGenerator(rnd randsrc.Source) *IdentifierGenerator {
	return &IdentifierGenerator{rnd: rnd}
}

func (g *IdentifierGenerator) PNR() string {
	return g.code(PNRLength)
}

func (g *IdentifierGenerator) Reference() string {
	return g.code(ReferenceLength)
}

func (g *IdentifierGenerator) code(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = identifierAlphabet[g.rnd.IntN(len(identifierAlphabet))]
	}
	return string(buf)
}
