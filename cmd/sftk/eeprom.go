package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sparkfun/SparkFun-Toolkit/cmd/sftk/console"
	"github.com/sparkfun/SparkFun-Toolkit/devices/m24c64"
	"github.com/sparkfun/SparkFun-Toolkit/i2c"
	"github.com/urfave/cli/v2"
)

var eepromCmd = cli.Command{
	Name:  "eeprom",
	Usage: "access an M24C64 EEPROM",
	Subcommands: cli.Commands{
		&eepromDumpCmd,
		&eepromWriteCmd,
	},
}

var eepromDumpCmd = cli.Command{
	Name: "dump",
	Flags: append([]cli.Flag{
		&cli.UintFlag{Name: "offset", Aliases: []string{"o"}, Usage: "start address"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 256, Usage: "number of bytes"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		if bus.Address() == i2c.NoAddress {
			bus.SetAddress(m24c64.DefaultAddress)
		}
		mem := m24c64.New(bus)
		buf := make([]byte, c.Int("count"))
		n, err := mem.Read(ctx, uint16(c.Uint("offset")), buf)
		if err != nil {
			if n == 0 {
				return console.Exit(1, "eeprom read error: %s", console.Red(err))
			}
			console.Warnf("partial read (%d of %d bytes): %s", n, len(buf), err)
		}
		console.Print(hex.Dump(buf[:n]))
		return nil
	},
}

var eepromWriteCmd = cli.Command{
	Name: "write",
	Flags: append([]cli.Flag{
		&cli.UintFlag{Name: "offset", Aliases: []string{"o"}, Usage: "start address"},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Required: true, Usage: "hex-encoded data bytes"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		data, err := hex.DecodeString(c.String("data"))
		if err != nil {
			return console.Exit(1, "invalid data: %s", console.Red(err))
		}
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		if bus.Address() == i2c.NoAddress {
			bus.SetAddress(m24c64.DefaultAddress)
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("write %d bytes at %#04x?", len(data), c.Uint("offset")))
			if err != nil || answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		mem := m24c64.New(bus)
		if err := mem.Write(ctx, uint16(c.Uint("offset")), data); err != nil {
			return console.Exit(1, "eeprom write error: %s", console.Red(err))
		}
		console.PInfof(console.PictoMemory, "wrote %d bytes", len(data))
		return nil
	},
}
