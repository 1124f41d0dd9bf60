package booking

import (
	"strconv"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/randsrc"
)

type cabinLayout struct {
	rows    int
	letters string
}

// Seat numbers are cosmetic: two passengers in the same cabin may draw the same seat.
var cabinLayouts = map[domain.SeatClass]cabinLayout{
	domain.SeatClassEconomy:        {rows: 30, letters: "ABCDEF"},
	domain.SeatClassPremiumEconomy: {rows: 20, letters: "ABCD"},
	domain.SeatClassBusiness:       {rows: 10, letters: "ABCD"},
	domain.SeatClassFirst:          {rows: 5, letters: "AB"},
}

func pickSeat(rnd randsrc.Source, class domain.SeatClass) string {
	layout, ok := cabinLayouts[class]
	if !ok {
		return ""
	}
	row := rnd.IntN(layout.rows) + 1
	letter := layout.letters[rnd.IntN(len(layout.letters))]
	return strconv.Itoa(row) + string(letter)
}
