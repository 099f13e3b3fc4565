package main

import (
	"context"

	"github.com/sparkfun/SparkFun-Toolkit/cmd/sftk/console"
	"github.com/urfave/cli/v2"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "probe the bus for responding devices",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		found := 0
		// 7-bit address space minus the reserved ranges
		for addr := uint8(0x08); addr <= 0x77; addr++ {
			bus.SetAddress(addr)
			if err := bus.Ping(ctx); err != nil {
				continue
			}
			console.PInfof(console.PictoChip, "device at %#02x", addr)
			found++
		}
		if found == 0 {
			console.Info("no devices found")
		}
		return nil
	},
}
