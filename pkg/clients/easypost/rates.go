package easypost

import (
	"strconv"
	"strings"

	sdk "github.com/EasyPost/easypost-go/v4"
)

// selector only runs the SDK's local rate filtering; it never calls the API
var selector = &sdk.Client{}

// LowestRate picks the cheapest rate whose carrier is in carriers, using the
// SDK's carrier filter. Carrier names match case-insensitively; an empty list
// allows any carrier. Rates with an unparseable amount are skipped.
func LowestRate(rates []Rate, carriers []string) (Rate, bool) {
	priced := make([]*sdk.Rate, 0, len(rates))
	for _, r := range rates {
		if r.ID == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(r.Rate), 64); err != nil {
			continue
		}
		sr := toSDKRate(r)
		sr.Rate = strings.TrimSpace(r.Rate)
		priced = append(priced, sr)
	}
	if len(priced) == 0 {
		return Rate{}, false
	}

	// The selector lower-cases the carrier list in place
	filter := append([]string(nil), carriers...)
	lowest, err := selector.LowestShipmentRateWithCarrierAndService(&sdk.Shipment{Rates: priced}, filter, nil)
	if err != nil {
		return Rate{}, false
	}
	return fromSDKRate(&lowest), true
}
