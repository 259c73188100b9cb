package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/wavepath/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the built-in scenes or display information about the scenes passed
// as arguments.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	names := scene.BuiltinNames()
	if ctx.NArg() != 0 {
		names = ctx.Args()
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Materials", "Primitives", "Lights", "Description"})
	for _, name := range names {
		sc, err := scene.Builtin(name)
		if err != nil {
			return err
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%d", len(sc.Materials)),
			fmt.Sprintf("%d", len(sc.Primitives)),
			fmt.Sprintf("%d", len(sc.Lights)),
			scene.BuiltinDescription(name),
		})
	}
	table.Render()

	logger.Noticef("built-in scenes\n%s", buf.String())
	return nil
}
