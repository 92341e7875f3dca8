package commands

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wikicap/wikicap/pkg/capture/pcap"
)

// BuildDevicesCmd returns a cobra command that lists the capture devices
func BuildDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "list the network interfaces available for capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := pcap.Devices()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("DEVICE", "DESCRIPTION", "ADDRESSES")
			for _, device := range devices {
				err := table.Append(device.Name, device.Description, strings.Join(device.Addresses, ", "))
				if err != nil {
					return err
				}
			}

			return table.Render()
		},
	}
}
