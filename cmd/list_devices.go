package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/wavepath/tracer/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the devices that can run the path tracer.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	devices := device.SelectDevices(ctx.Int("workers"), ctx.Int64("memory-budget"))

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Device", "Type", "Workers", "Memory budget"})
	for dIdx, dev := range devices {
		budget := "unlimited"
		if dev.MemoryBudget() > 0 {
			budget = fmt.Sprintf("%d bytes", dev.MemoryBudget())
		}
		table.Append([]string{
			fmt.Sprintf("%02d: %s", dIdx, dev.Name),
			dev.Type.String(),
			fmt.Sprintf("%d", dev.Workers()),
			budget,
		})
	}
	table.Render()

	logger.Noticef("platform information\n%s\n%s", device.PlatformInfo(devices), buf.String())
	return nil
}
