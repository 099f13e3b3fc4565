package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
	"github.com/sparkfun/SparkFun-Toolkit/adapter"
	"github.com/sparkfun/SparkFun-Toolkit/i2c"
	"github.com/urfave/cli/v2"
)

// BusConfig describes a two-wire bus binding; loadable from a YAML file so
// repeated invocations don't need the full flag set.
type BusConfig struct {
	// Port selects the binding: "mcp2221" (USB bridge) or a periph device
	// path like "/dev/i2c-1".
	Port      string `yaml:"port"`
	Address   uint8  `yaml:"address"`
	ChunkSize int    `yaml:"chunk_size"`
	ByteOrder string `yaml:"byte_order"`
	Stop      bool   `yaml:"stop"`
}

func defaultBusConfig() BusConfig {
	return BusConfig{Port: "mcp2221", Address: i2c.NoAddress, Stop: true}
}

func loadBusConfig(path string) (BusConfig, error) {
	cfg := defaultBusConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file: %w", err)
	}
	return cfg, nil
}

// busFlags are shared by every command that opens a bus.
var busFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "bus config YAML file"},
	&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "mcp2221 or an i2c device path"},
	&cli.UintFlag{Name: "addr", Aliases: []string{"a"}, Usage: "device address"},
	&cli.IntFlag{Name: "chunk", Usage: "read chunk size in bytes"},
	&cli.StringFlag{Name: "order", Usage: "device byte order: big or little"},
	&cli.BoolFlag{Name: "restart", Usage: "use restart framing instead of stop"},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

// openBus builds an i2c bus from the config file and flag overrides.
func openBus(c *cli.Context) (*i2c.Bus, error) {
	cfg, err := loadBusConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("addr") {
		cfg.Address = uint8(c.Uint("addr"))
	}
	if c.IsSet("chunk") {
		cfg.ChunkSize = c.Int("chunk")
	}
	if c.IsSet("order") {
		cfg.ByteOrder = c.String("order")
	}
	if c.IsSet("restart") {
		cfg.Stop = !c.Bool("restart")
	}

	var port i2c.Port
	switch cfg.Port {
	case "mcp2221":
		port = adapter.NewMCP2221()
	default:
		p, err := i2c.OpenPeriph(cfg.Port)
		if err != nil {
			return nil, err
		}
		port = p
	}

	bus := i2c.New(port, cfg.Address)
	bus.SetStop(cfg.Stop)
	if cfg.ChunkSize > 0 {
		bus.SetChunkSize(cfg.ChunkSize)
	}
	switch cfg.ByteOrder {
	case "big":
		bus.SetByteOrder(toolkit.BigEndian)
	case "little":
		bus.SetByteOrder(toolkit.LittleEndian)
	case "":
	default:
		return nil, fmt.Errorf("unknown byte order %q", cfg.ByteOrder)
	}
	return bus, nil
}
