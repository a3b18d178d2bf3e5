package cli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"shipper/pkg/clients/easypost"
	"shipper/pkg/clients/twilio"
	"shipper/pkg/config"
	"shipper/pkg/metrics"
	"shipper/pkg/services"
)

// newLabelService builds the label pipeline from the configuration, adding
// SMS receipts when Twilio is configured
func newLabelService(cfg *config.Config, reg prometheus.Registerer) services.LabelService {
	easyPostClient := easypost.NewClient(
		cfg.EasyPostAPIKey,
		easypost.WithBaseURL(cfg.EasyPostBaseURL),
		easypost.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)

	labels := services.NewLabelService(easyPostClient, metrics.NewLabel(reg))
	if cfg.SMSEnabled() {
		twilioClient := twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		labels = services.WithSMSReceipt(labels, twilioClient)
	}
	return labels
}
