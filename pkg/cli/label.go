package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shipper/pkg/config"
	"shipper/pkg/models"
	"shipper/pkg/validation"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Buy a USPS label for a shipment described in a YAML file",
	Long: `Reads fromAddress, toAddress and parcel from a YAML file, validates them
with the strict rules and runs the label pipeline once. The result is printed
as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		req, err := loadShipmentRequest(path)
		if err != nil {
			return err
		}
		if errs := validation.Strict().Validate(req); len(errs) > 0 {
			return fieldErrorsError(errs)
		}

		// Metrics are not exported from a one-shot command
		labels := newLabelService(config.LoadConfig(), prometheus.NewRegistry())
		result := labels.CreateShipmentLabel(cmd.Context(), req)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if !result.OK() {
			return fmt.Errorf("label not created: %s", result.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
	labelCmd.Flags().StringP("file", "f", "", "YAML file describing the shipment")
	_ = labelCmd.MarkFlagRequired("file")
}

// loadShipmentRequest reads a shipment request from a YAML file
func loadShipmentRequest(path string) (models.ShipmentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ShipmentRequest{}, fmt.Errorf("error reading shipment file: %w", err)
	}

	var req models.ShipmentRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return models.ShipmentRequest{}, fmt.Errorf("error parsing shipment file: %w", err)
	}
	return req, nil
}

// fieldErrorsError lists the failures in form order
func fieldErrorsError(errs validation.FieldErrors) error {
	msg := "invalid shipment:"
	for _, f := range models.AllFields() {
		if m, ok := errs[f.Path]; ok {
			msg += fmt.Sprintf("\n  %s: %s", f.Path, m)
		}
	}
	return errors.New(msg)
}
