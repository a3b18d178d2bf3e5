package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"shipper/pkg/clients/twilio"
	"shipper/pkg/models"
	"shipper/pkg/utils"
)

type smsReceiptService struct {
	next   LabelService
	client twilio.Client
}

// WithSMSReceipt texts the label URL to the sender phone after a successful
// purchase. A failed text is logged and does not change the result. With a
// nil client next is returned unchanged.
func WithSMSReceipt(next LabelService, client twilio.Client) LabelService {
	if client == nil {
		return next
	}
	return &smsReceiptService{next: next, client: client}
}

func (s *smsReceiptService) CreateShipmentLabel(ctx context.Context, req models.ShipmentRequest) models.ShipmentResult {
	result := s.next.CreateShipmentLabel(ctx, req)
	if !result.OK() {
		return result
	}

	phone := strings.TrimSpace(req.FromAddress.Phone)
	if phone == "" {
		return result
	}

	message := fmt.Sprintf("Your USPS label is ready: %s", result.Data)
	if err := s.client.SendMessage(phone, message); err != nil {
		log.Printf("Error sending label receipt to %s: %v", utils.RedactPhone(phone), err)
	}
	return result
}
