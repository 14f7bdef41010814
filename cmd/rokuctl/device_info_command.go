package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rokuctl/internal/ecp"
)

func newDeviceInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "device-info",
		Short: "Show details reported by the saved device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			store, err := sess.loadStore()
			if err != nil {
				return err
			}
			resp, err := sess.send(cmd.Context(), ecp.DeviceInfo{}, store.Device)
			if err != nil {
				return err
			}
			report, err := ecp.ParseDeviceInfo(resp.Body)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, struct {
					Device ecp.Device           `json:"device"`
					Info   ecp.DeviceInfoReport `json:"info"`
				}{store.Device, report})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFields([][2]string{
				{"Name", report.DisplayName()},
				{"Address", store.Device.Addr},
				{"Model", joinNonEmpty(report.ModelName, report.ModelNumber)},
				{"Vendor", report.VendorName},
				{"Serial", report.SerialNumber},
				{"Software", joinNonEmpty(report.SoftwareVersion, report.SoftwareBuild)},
				{"Power", report.PowerMode},
				{"Network", joinNonEmpty(report.NetworkType, report.NetworkName)},
				{"Location", report.UserDeviceLocation},
				{"TV", yesNo(report.IsTV)},
				{"Search", yesNo(report.SearchEnabled)},
				{"Developer mode", yesNo(report.DeveloperEnabled)},
				{"UDN", report.UDN},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func joinNonEmpty(primary, secondary string) string {
	switch {
	case primary == "":
		return secondary
	case secondary == "":
		return primary
	default:
		return fmt.Sprintf("%s (%s)", primary, secondary)
	}
}
