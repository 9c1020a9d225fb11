package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/GPIDI/internal/pkg/display"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/osc"
	"github.com/go-ini/ini"
	"periph.io/x/conn/v3/physic"
)

type GPIDI struct {
	Board          string
	PollInterval   time.Duration
	DrainInterval  time.Duration // zero means inline drain
	DefaultChannel uint8
	MIDIPort       string
	MIDIVirtual    bool // create virtual port instead of connecting to existing one
	MIDIOutput     bool
	Simulate       bool
}

type Runtime struct {
	PotThreshold int
	Debounce     time.Duration
	SweepBits    uint8
	Capacity     int
}

type ADC struct {
	Enabled   bool
	Converter hw.ADCConfig
}

type OSC struct {
	Enabled      bool
	APInterface  string
	STAInterface string
	Queue        osc.Config
}

type Store struct {
	Path     string
	AutoSave time.Duration
	Watch    bool
}

type GPIDIConfig struct {
	GPIDI   GPIDI
	Runtime Runtime
	ADC     ADC
	OSC     OSC
	Store   Store
	Screen  display.ScreenConfig
}

func mustInt(section *ini.Section, name string) int {
	key, err := section.GetKey(name)
	if err != nil {
		panic(fmt.Sprintf("[%s] %v", section.Name(), err))
	}
	i, err := key.Int()
	if err != nil {
		panic(fmt.Sprintf("[%s] %s: %v", section.Name(), name, err))
	}
	return i
}

func mustBool(section *ini.Section, name string) bool {
	key, err := section.GetKey(name)
	if err != nil {
		panic(fmt.Sprintf("[%s] %v", section.Name(), err))
	}
	b, err := key.Bool()
	if err != nil {
		panic(fmt.Sprintf("[%s] %s: %v", section.Name(), name, err))
	}
	return b
}

func mustSection(cfg *ini.File, name string) *ini.Section {
	section, err := cfg.GetSection(name)
	if err != nil {
		panic(err)
	}
	return section
}

func perSecond(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(rate)
}

func LoadGPIDIConfig(path string) GPIDIConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		panic(err)
	}

	var c GPIDIConfig

	// [gpidi]
	gpidi := mustSection(cfg, "gpidi")
	c.GPIDI.Board = gpidi.Key("board").String()
	c.GPIDI.PollInterval = perSecond(mustInt(gpidi, "poll_rate"))
	if c.GPIDI.PollInterval == 0 {
		panic("[gpidi] poll_rate has to be positive")
	}
	c.GPIDI.DrainInterval = perSecond(mustInt(gpidi, "drain_rate"))
	ch := mustInt(gpidi, "default_channel")
	if ch < 1 || ch > 16 {
		panic(fmt.Sprintf("[gpidi] default_channel outside of 1-16 range: %d", ch))
	}
	c.GPIDI.DefaultChannel = uint8(ch)
	c.GPIDI.MIDIPort = gpidi.Key("midi_port").MustString("GPIDI")
	c.GPIDI.MIDIVirtual = mustBool(gpidi, "midi_virtual")
	c.GPIDI.MIDIOutput = mustBool(gpidi, "midi_output")
	c.GPIDI.Simulate = mustBool(gpidi, "simulate")

	// [runtime]
	runtime := mustSection(cfg, "runtime")
	c.Runtime.PotThreshold = mustInt(runtime, "pot_threshold")
	c.Runtime.Debounce = time.Millisecond * time.Duration(mustInt(runtime, "debounce_ms"))
	c.Runtime.SweepBits = uint8(mustInt(runtime, "sweep_bits"))
	c.Runtime.Capacity = mustInt(runtime, "capacity")

	// [adc]
	adc := mustSection(cfg, "adc")
	c.ADC.Enabled = mustBool(adc, "enabled")
	c.ADC.Converter = hw.ADCConfig{
		Chip:       adc.Key("chip").String(),
		Bus:        adc.Key("bus").String(),
		Address:    uint16(mustInt(adc, "address")),
		Channels:   mustInt(adc, "channels"),
		MaxVoltage: physic.MilliVolt * physic.ElectricPotential(mustInt(adc, "max_mv")),
		Rate:       physic.Hertz * physic.Frequency(mustInt(adc, "rate")),
	}
	switch c.ADC.Converter.Chip {
	case "ads1015", "ads1115":
	default:
		panic(fmt.Sprintf("[adc] unsupported chip: \"%s\"", c.ADC.Converter.Chip))
	}
	if c.ADC.Converter.Channels < 1 || c.ADC.Converter.Channels > 4 {
		panic(fmt.Sprintf("[adc] channels outside of 1-4 range: %d", c.ADC.Converter.Channels))
	}
	if c.ADC.Converter.Rate < physic.Hertz {
		panic("[adc] rate has to be positive")
	}

	// [osc]
	oscSection := mustSection(cfg, "osc")
	c.OSC.Enabled = mustBool(oscSection, "enabled")
	c.OSC.APInterface = oscSection.Key("ap_interface").String()
	c.OSC.STAInterface = oscSection.Key("sta_interface").String()

	q := osc.DefaultConfig()
	q.Broadcast = mustBool(oscSection, "broadcast")
	q.Interface, err = osc.ParseInterface(oscSection.Key("interface").String())
	if err != nil {
		panic(err)
	}
	q.Port = mustInt(oscSection, "target_port")
	if !q.Broadcast {
		ip := net.ParseIP(oscSection.Key("target_ip").String())
		if ip == nil {
			panic(fmt.Sprintf("[osc] invalid target_ip: \"%s\"", oscSection.Key("target_ip").String()))
		}
		q.Target = &net.UDPAddr{IP: ip, Port: q.Port}
	}
	q.Size = mustInt(oscSection, "queue_size")
	q.Batch = mustInt(oscSection, "batch")
	q.Retries = mustInt(oscSection, "retries")
	q.RetryDelay = time.Millisecond * time.Duration(mustInt(oscSection, "retry_delay_ms"))
	c.OSC.Queue = q

	// [store]
	storeSection := mustSection(cfg, "store")
	c.Store.Path = storeSection.Key("path").MustString(configDir + "/pins")
	c.Store.AutoSave = time.Second * time.Duration(mustInt(storeSection, "autosave_s"))
	c.Store.Watch = mustBool(storeSection, "watch")

	// [screen]
	screen := mustSection(cfg, "screen")
	c.Screen.Enabled = mustBool(screen, "enabled")

	switch t := screen.Key("type").Value(); t {
	case "16x2":
		c.Screen.LcdType = hd44780.LCD_16x2
	case "20x4":
		c.Screen.LcdType = hd44780.LCD_20x4
	default:
		panic(fmt.Sprintf("[screen] unsupported type: \"%s\"", t))
	}

	c.Screen.Bus = mustInt(screen, "bus")
	c.Screen.Address = uint8(mustInt(screen, "address"))
	c.Screen.UpdateRate = mustInt(screen, "update_rate")

	for i := range c.Screen.ExitMessage {
		c.Screen.ExitMessage[i] = screen.Key(fmt.Sprintf("exit_message%d", i+1)).String()
	}

	return c
}

//go:embed gpidi-config/gpidi.config
//go:embed gpidi-config/pins/*
var templateConfig embed.FS

const configDir = "gpidi-config"

// createConfigDirectoryIfNeeded creates config tree with example pins on first run.
// Existing files are never touched, pin records belong to the user.
func createConfigDirectoryIfNeeded() error {
	cdir, err := os.OpenFile(configDir, os.O_RDONLY, 0)
	if err == nil {
		cdir.Close()
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot open config directory: %v", err)
	}
	log.Info("config not exist, generating tree...", logger.Info)

	err = fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			err := os.Mkdir(path, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
			}
			return nil
		}

		data, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
		}

		err = os.WriteFile(path, data, 0o666)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
		}

		log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Debug)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("config generation done", logger.Info)
	return nil
}
