package services

import (
	"context"
	"log"
	"time"

	"shipper/pkg/clients/easypost"
	"shipper/pkg/metrics"
	"shipper/pkg/models"
)

// Messages returned in a failed ShipmentResult, one per pipeline stage
const (
	ErrCreatingShipment = "Error creating shipment"
	ErrNoUSPSRate       = "No USPS rate found"
	ErrBuyingShipment   = "Error buying shipment"
	ErrNoLabelURL       = "No label URL returned"
)

// LabelService defines the interface for turning a form into a label
type LabelService interface {
	CreateShipmentLabel(ctx context.Context, req models.ShipmentRequest) models.ShipmentResult
}

type labelServiceImpl struct {
	client   easypost.Client
	metrics  *metrics.Label
	carriers []string
}

// NewLabelService creates a label service buying the cheapest USPS rate
func NewLabelService(client easypost.Client, m *metrics.Label) LabelService {
	return &labelServiceImpl{
		client:   client,
		metrics:  m,
		carriers: []string{"USPS"},
	}
}

// labelRun is the data passed from one stage to the next
type labelRun struct {
	req      models.ShipmentRequest
	shipment *easypost.Shipment
	rate     easypost.Rate
	url      string
}

// stageFailure is the tagged outcome of a failed stage
type stageFailure struct {
	outcome string
	message string
}

type stage func(ctx context.Context, run *labelRun) *stageFailure

// CreateShipmentLabel runs create, select rate and buy in order, stopping at
// the first failure. Nothing is retried.
func (s *labelServiceImpl) CreateShipmentLabel(ctx context.Context, req models.ShipmentRequest) models.ShipmentResult {
	started := time.Now()
	run := &labelRun{req: req}

	for _, st := range []stage{s.createShipment, s.selectRate, s.buyShipment} {
		if failure := st(ctx, run); failure != nil {
			s.metrics.Observe(failure.outcome, started)
			return models.Failure(failure.message)
		}
	}

	s.metrics.Observe(metrics.OutcomeSuccess, started)
	return models.Success(run.url)
}

func (s *labelServiceImpl) createShipment(ctx context.Context, run *labelRun) *stageFailure {
	shipment, err := s.client.CreateShipment(ctx, toShipmentParams(run.req))
	if err != nil {
		log.Printf("Error creating shipment: %v", err)
		return &stageFailure{outcome: metrics.OutcomeCreateFailed, message: ErrCreatingShipment}
	}
	if shipment == nil {
		log.Printf("Error creating shipment: empty response")
		return &stageFailure{outcome: metrics.OutcomeCreateFailed, message: ErrCreatingShipment}
	}
	run.shipment = shipment
	return nil
}

func (s *labelServiceImpl) selectRate(_ context.Context, run *labelRun) *stageFailure {
	rate, ok := easypost.LowestRate(run.shipment.Rates, s.carriers)
	if !ok {
		log.Printf("No USPS rate found: shipment=%s rates=%d carriers=%v",
			run.shipment.ID, len(run.shipment.Rates), rateCarriers(run.shipment.Rates))
		return &stageFailure{outcome: metrics.OutcomeNoRate, message: ErrNoUSPSRate}
	}
	run.rate = rate
	return nil
}

func (s *labelServiceImpl) buyShipment(ctx context.Context, run *labelRun) *stageFailure {
	purchase, err := s.client.BuyShipment(ctx, run.shipment.ID, run.rate)
	if err != nil {
		log.Printf("Error buying shipment: shipment=%s rate=%s: %v", run.shipment.ID, run.rate.ID, err)
		return &stageFailure{outcome: metrics.OutcomeBuyFailed, message: ErrBuyingShipment}
	}

	if purchase == nil {
		log.Printf("No label URL returned: shipment=%s rate=%s: empty response", run.shipment.ID, run.rate.ID)
		return &stageFailure{outcome: metrics.OutcomeNoLabelURL, message: ErrNoLabelURL}
	}

	url := purchase.LabelURL()
	if url == "" {
		log.Printf("No label URL returned: shipment=%s rate=%s tracking=%s",
			purchase.ID, run.rate.ID, purchase.TrackingCode)
		return &stageFailure{outcome: metrics.OutcomeNoLabelURL, message: ErrNoLabelURL}
	}
	run.url = url
	return nil
}

func toShipmentParams(req models.ShipmentRequest) easypost.ShipmentParams {
	return easypost.ShipmentParams{
		FromAddress: toAddress(req.FromAddress),
		ToAddress:   toAddress(req.ToAddress),
		Parcel: easypost.Parcel{
			Length: deref(req.Parcel.Length),
			Width:  deref(req.Parcel.Width),
			Height: deref(req.Parcel.Height),
			Weight: deref(req.Parcel.Weight),
		},
	}
}

func toAddress(a models.Address) easypost.Address {
	return easypost.Address{
		Name:    a.Name,
		Phone:   a.Phone,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: "US",
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func rateCarriers(rates []easypost.Rate) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rates {
		if !seen[r.Carrier] {
			seen[r.Carrier] = true
			out = append(out, r.Carrier)
		}
	}
	return out
}
