package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
	"github.com/gethiox/GPIDI/internal/pkg/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "gpidi.config")
	require.Equal(t, nil, os.WriteFile(path, []byte(data), 0o666))
	return path
}

func templateData(t *testing.T) string {
	data, err := templateConfig.ReadFile(configDir + "/gpidi.config")
	require.Equal(t, nil, err)
	return string(data)
}

func TestLoadTemplateConfig(t *testing.T) {
	cfg := LoadGPIDIConfig(writeConfig(t, templateData(t)))

	assert.Equal(t, "rpi", cfg.GPIDI.Board)
	assert.Equal(t, time.Millisecond*2, cfg.GPIDI.PollInterval)
	assert.Equal(t, time.Millisecond*4, cfg.GPIDI.DrainInterval)
	assert.Equal(t, uint8(1), cfg.GPIDI.DefaultChannel)
	assert.Equal(t, "GPIDI", cfg.GPIDI.MIDIPort)
	assert.True(t, cfg.GPIDI.MIDIVirtual)
	assert.True(t, cfg.GPIDI.MIDIOutput)
	assert.False(t, cfg.GPIDI.Simulate)

	assert.Equal(t, Runtime{PotThreshold: 3, Debounce: time.Millisecond * 30, SweepBits: 2, Capacity: 32}, cfg.Runtime)

	assert.False(t, cfg.ADC.Enabled)
	assert.Equal(t, hw.ADCConfig{
		Chip:       "ads1115",
		Bus:        "1",
		Address:    0x48,
		Channels:   4,
		MaxVoltage: 3300 * physic.MilliVolt,
		Rate:       250 * physic.Hertz,
	}, cfg.ADC.Converter)

	assert.False(t, cfg.OSC.Enabled)
	assert.Equal(t, "wlan1", cfg.OSC.APInterface)
	assert.Equal(t, "wlan0", cfg.OSC.STAInterface)
	assert.Equal(t, osc.Both, cfg.OSC.Queue.Interface)
	assert.True(t, cfg.OSC.Queue.Broadcast)
	assert.Nil(t, cfg.OSC.Queue.Target)
	assert.Equal(t, 8000, cfg.OSC.Queue.Port)
	assert.Equal(t, time.Millisecond*2, cfg.OSC.Queue.RetryDelay)

	assert.Equal(t, Store{Path: "./gpidi-config/pins", AutoSave: time.Second * 30, Watch: true}, cfg.Store)

	assert.False(t, cfg.Screen.Enabled)
	assert.Equal(t, hd44780.LCD_20x4, cfg.Screen.LcdType)
	assert.Equal(t, uint8(39), cfg.Screen.Address)
	assert.False(t, cfg.Screen.HaveExitMessage())
}

func TestLoadConfigUnicast(t *testing.T) {
	data := strings.Replace(templateData(t), "broadcast = true", "broadcast = false", 1)
	data = strings.Replace(data, "drain_rate = 250", "drain_rate = 0", 1)
	cfg := LoadGPIDIConfig(writeConfig(t, data))

	assert.Equal(t, time.Duration(0), cfg.GPIDI.DrainInterval, "drained inline")
	require.NotNil(t, cfg.OSC.Queue.Target)
	assert.Equal(t, "192.168.4.2:8000", cfg.OSC.Queue.Target.String())
}

func TestLoadBrokenConfig(t *testing.T) {
	for _, tc := range []struct{ old, new string }{
		{"default_channel = 1", "default_channel = 17"},
		{"interface = both", "interface = eth0"},
		{"type = 20x4", "type = 40x2"},
		{"poll_rate = 500", "poll_rate = fast"},
		{"chip = ads1115", "chip = mcp3008"},
		{"channels = 4", "channels = 8"},
		{"\nrate = 250", "\nrate = 0"},
	} {
		t.Run(tc.new, func(t *testing.T) {
			path := writeConfig(t, strings.Replace(templateData(t), tc.old, tc.new, 1))
			assert.Panics(t, func() { LoadGPIDIConfig(path) })
		})
	}
}

func TestSetupRouter(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		t.Run(fmt.Sprintf("%t", enabled), func(t *testing.T) {
			events := make(chan midi.Event, 4)
			router := setupRouter(GPIDI{DefaultChannel: 2, MIDIOutput: enabled}, midi.NewEventSender(events))
			assert.Equal(t, enabled, router.Enabled(midiTransport))

			router.NoteOn(0, 60, 100)
			if !enabled {
				assert.Equal(t, 0, len(events))
				return
			}
			require.Equal(t, 1, len(events))
			assert.Equal(t, midi.NoteEvent(midi.NoteOn, 1, 60, 100), <-events)
		})
	}
}
