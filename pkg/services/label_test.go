package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipper/pkg/clients/easypost"
	"shipper/pkg/metrics"
	"shipper/pkg/models"
)

type fakeEasyPost struct {
	shipment  *easypost.Shipment
	createErr error
	purchase  *easypost.Shipment
	buyErr    error

	created   []easypost.ShipmentParams
	boughtIDs []string
	rates     []easypost.Rate
}

func (f *fakeEasyPost) CreateShipment(_ context.Context, params easypost.ShipmentParams) (*easypost.Shipment, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.shipment, nil
}

func (f *fakeEasyPost) BuyShipment(_ context.Context, shipmentID string, rate easypost.Rate) (*easypost.Shipment, error) {
	f.boughtIDs = append(f.boughtIDs, shipmentID)
	f.rates = append(f.rates, rate)
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	return f.purchase, nil
}

func quotedShipment() *easypost.Shipment {
	return &easypost.Shipment{
		ID: "shp_1",
		Rates: []easypost.Rate{
			{ID: "rate_ups", Carrier: "UPS", Rate: "4.00"},
			{ID: "rate_usps_priority", Carrier: "USPS", Service: "Priority", Rate: "9.15"},
			{ID: "rate_usps_ground", Carrier: "USPS", Service: "GroundAdvantage", Rate: "6.40"},
		},
	}
}

func purchased(url string) *easypost.Shipment {
	s := &easypost.Shipment{ID: "shp_1"}
	if url != "" {
		s.PostageLabel = &easypost.PostageLabel{LabelURL: url}
	}
	return s
}

func newTestService(client easypost.Client) (LabelService, *metrics.Label) {
	m := metrics.NewLabel(prometheus.NewRegistry())
	return NewLabelService(client, m), m
}

func TestCreateShipmentLabelSuccess(t *testing.T) {
	fake := &fakeEasyPost{shipment: quotedShipment(), purchase: purchased("https://label.test")}
	svc, m := newTestService(fake)

	result := svc.CreateShipmentLabel(context.Background(), models.DefaultShipmentRequest())

	assert.Equal(t, models.Success("https://label.test"), result)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "US", fake.created[0].FromAddress.Country)
	assert.Equal(t, "US", fake.created[0].ToAddress.Country)
	assert.Equal(t, "John Doe", fake.created[0].FromAddress.Name)
	assert.Equal(t, "FLOOR 5", fake.created[0].FromAddress.Street2)
	assert.Equal(t, easypost.Parcel{Length: 8, Width: 5, Height: 5, Weight: 5}, fake.created[0].Parcel)

	require.Len(t, fake.rates, 1)
	assert.Equal(t, "rate_usps_ground", fake.rates[0].ID)
	assert.Equal(t, []string{"shp_1"}, fake.boughtIDs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestCreateShipmentLabelFailures(t *testing.T) {
	tests := []struct {
		name      string
		fake      *fakeEasyPost
		want      string
		outcome   string
		purchases int
	}{
		{
			name:    "create fails",
			fake:    &fakeEasyPost{createErr: errors.New("connection refused")},
			want:    ErrCreatingShipment,
			outcome: metrics.OutcomeCreateFailed,
		},
		{
			name:    "create returns no shipment",
			fake:    &fakeEasyPost{},
			want:    ErrCreatingShipment,
			outcome: metrics.OutcomeCreateFailed,
		},
		{
			name: "no usps rate",
			fake: &fakeEasyPost{shipment: &easypost.Shipment{
				ID:    "shp_2",
				Rates: []easypost.Rate{{ID: "r", Carrier: "FedEx", Rate: "5.00"}},
			}},
			want:    ErrNoUSPSRate,
			outcome: metrics.OutcomeNoRate,
		},
		{
			name:      "buy fails",
			fake:      &fakeEasyPost{shipment: quotedShipment(), buyErr: errors.New("insufficient funds")},
			want:      ErrBuyingShipment,
			outcome:   metrics.OutcomeBuyFailed,
			purchases: 1,
		},
		{
			name:      "no label url",
			fake:      &fakeEasyPost{shipment: quotedShipment(), purchase: purchased("")},
			want:      ErrNoLabelURL,
			outcome:   metrics.OutcomeNoLabelURL,
			purchases: 1,
		},
		{
			name:      "buy returns no shipment",
			fake:      &fakeEasyPost{shipment: quotedShipment()},
			want:      ErrNoLabelURL,
			outcome:   metrics.OutcomeNoLabelURL,
			purchases: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(tt.fake)

			result := svc.CreateShipmentLabel(context.Background(), models.DefaultShipmentRequest())

			assert.Equal(t, models.Failure(tt.want), result)
			assert.Empty(t, result.Data)
			assert.False(t, result.OK())
			assert.Len(t, tt.fake.boughtIDs, tt.purchases)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(tt.outcome)))
		})
	}
}

type fakeSMS struct {
	to, body []string
	err      error
}

func (f *fakeSMS) SendMessage(to, body string) error {
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return f.err
}

type stubLabelService struct {
	result models.ShipmentResult
	calls  int
}

func (s *stubLabelService) CreateShipmentLabel(context.Context, models.ShipmentRequest) models.ShipmentResult {
	s.calls++
	return s.result
}

func TestSMSReceiptOnSuccess(t *testing.T) {
	sms := &fakeSMS{}
	svc := WithSMSReceipt(&stubLabelService{result: models.Success("https://label.test")}, sms)

	req := models.DefaultShipmentRequest()
	req.FromAddress.Phone = "4155550100"
	result := svc.CreateShipmentLabel(context.Background(), req)

	assert.Equal(t, models.Success("https://label.test"), result)
	assert.Equal(t, []string{"4155550100"}, sms.to)
	assert.Equal(t, []string{"Your USPS label is ready: https://label.test"}, sms.body)
}

func TestSMSReceiptSkipped(t *testing.T) {
	sms := &fakeSMS{}

	failing := WithSMSReceipt(&stubLabelService{result: models.Failure(ErrNoUSPSRate)}, sms)
	req := models.DefaultShipmentRequest()
	req.FromAddress.Phone = "4155550100"
	assert.Equal(t, models.Failure(ErrNoUSPSRate), failing.CreateShipmentLabel(context.Background(), req))

	noPhone := WithSMSReceipt(&stubLabelService{result: models.Success("https://label.test")}, sms)
	assert.True(t, noPhone.CreateShipmentLabel(context.Background(), models.DefaultShipmentRequest()).OK())

	assert.Empty(t, sms.to)
}

func TestSMSReceiptFailureKeepsResult(t *testing.T) {
	sms := &fakeSMS{err: errors.New("twilio down")}
	svc := WithSMSReceipt(&stubLabelService{result: models.Success("https://label.test")}, sms)

	req := models.DefaultShipmentRequest()
	req.FromAddress.Phone = "4155550100"
	assert.Equal(t, models.Success("https://label.test"), svc.CreateShipmentLabel(context.Background(), req))
	assert.Len(t, sms.to, 1)
}

func TestWithSMSReceiptNilClient(t *testing.T) {
	inner := &stubLabelService{}
	assert.Same(t, LabelService(inner), WithSMSReceipt(inner, nil))
}
