package easypost

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	sdk "github.com/EasyPost/easypost-go/v4"
)

const DefaultBaseURL = "https://api.easypost.com/v2"

// Client defines the interface for interacting with the EasyPost API
type Client interface {
	CreateShipment(ctx context.Context, params ShipmentParams) (*Shipment, error)
	BuyShipment(ctx context.Context, shipmentID string, rate Rate) (*Shipment, error)
}

type clientImpl struct {
	client *sdk.Client
}

// Option configures the client
type Option func(*sdk.Client)

// WithBaseURL points the client at another API root, e.g. a test server.
// Invalid URLs are ignored.
func WithBaseURL(baseURL string) Option {
	return func(c *sdk.Client) {
		if baseURL == "" {
			return
		}
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			log.Printf("Ignoring invalid EasyPost base URL %q: %v", baseURL, err)
			return
		}
		c.BaseURL = u
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *sdk.Client) {
		if httpClient != nil {
			c.Client = httpClient
		}
	}
}

// NewClient creates a new EasyPost client
func NewClient(apiKey string, opts ...Option) Client {
	client := &sdk.Client{
		APIKey: apiKey,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}

	return &clientImpl{
		client: client,
	}
}

func (c *clientImpl) CreateShipment(ctx context.Context, params ShipmentParams) (*Shipment, error) {
	shipment, err := c.client.CreateShipmentWithContext(ctx, &sdk.Shipment{
		FromAddress: toSDKAddress(params.FromAddress),
		ToAddress:   toSDKAddress(params.ToAddress),
		Parcel: &sdk.Parcel{
			Length: params.Parcel.Length,
			Width:  params.Parcel.Width,
			Height: params.Parcel.Height,
			Weight: params.Parcel.Weight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating shipment: %w", err)
	}

	log.Printf("Created EasyPost shipment %s with %d rates", shipment.ID, len(shipment.Rates))
	return fromSDKShipment(shipment), nil
}

func (c *clientImpl) BuyShipment(ctx context.Context, shipmentID string, rate Rate) (*Shipment, error) {
	shipment, err := c.client.BuyShipmentWithContext(ctx, shipmentID, &sdk.Rate{ID: rate.ID}, "")
	if err != nil {
		return nil, fmt.Errorf("error buying shipment: %w", err)
	}

	log.Printf("Bought EasyPost shipment %s with %s %s rate", shipment.ID, rate.Carrier, rate.Service)
	return fromSDKShipment(shipment), nil
}

func toSDKAddress(a Address) *sdk.Address {
	return &sdk.Address{
		Name:    a.Name,
		Phone:   a.Phone,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
	}
}

func toSDKRate(r Rate) *sdk.Rate {
	return &sdk.Rate{
		ID:         r.ID,
		ShipmentID: r.ShipmentID,
		Carrier:    r.Carrier,
		Service:    r.Service,
		Rate:       r.Rate,
		Currency:   r.Currency,
	}
}

func fromSDKRate(r *sdk.Rate) Rate {
	return Rate{
		ID:         r.ID,
		ShipmentID: r.ShipmentID,
		Carrier:    r.Carrier,
		Service:    r.Service,
		Rate:       r.Rate,
		Currency:   r.Currency,
	}
}

func fromSDKShipment(s *sdk.Shipment) *Shipment {
	if s == nil {
		return nil
	}

	out := &Shipment{
		ID:           s.ID,
		TrackingCode: s.TrackingCode,
	}
	for _, r := range s.Rates {
		if r != nil {
			out.Rates = append(out.Rates, fromSDKRate(r))
		}
	}
	if s.SelectedRate != nil {
		selected := fromSDKRate(s.SelectedRate)
		out.SelectedRate = &selected
	}
	if s.PostageLabel != nil {
		out.PostageLabel = &PostageLabel{
			ID:       s.PostageLabel.ID,
			LabelURL: s.PostageLabel.LabelURL,
		}
	}
	return out
}
