package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/board"
	"github.com/gethiox/GPIDI/internal/pkg/bridge"
	"github.com/gethiox/GPIDI/internal/pkg/cache"
	"github.com/gethiox/GPIDI/internal/pkg/component"
	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/display"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
	"github.com/gethiox/GPIDI/internal/pkg/midi/driver"
	"github.com/gethiox/GPIDI/internal/pkg/midi/driver/alsa"
	"github.com/gethiox/GPIDI/internal/pkg/osc"
	"github.com/gethiox/GPIDI/internal/pkg/store"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func()) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("siganl received: %v", sig), logger.Debug)
		cancel()
		counter++
	}
}

// printLogs writes log entries to stdout until logger.Messages is closed.
func printLogs(done chan<- struct{}, silent, colors bool, logLevel int) {
	defer close(done)
	if silent {
		for range logger.Messages {
		}
		return
	}

	au := aurora.NewAurora(colors)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, -1, logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}

var (
	configPath = flag.String("config", configDir+"/gpidi.config", "path to runtime configuration")
	force256   = flag.Bool("256", false, "force 256 color mode")
	nocolor    = flag.Bool("nocolor", false, "disable color")
	simulate   = flag.Bool("simulate", false, "use in-memory pins instead of GPIO header, overrides config")
	logLevel   = flag.Int("loglevel", 2,
		"logging level, each level enables additional information class (0-5, default: 2)\n"+
			"more verbose levels may slightly impact overall performance\n"+
			"\navailable options:\n"+
			"0: general info (eg. component setup and reloads)\n"+
			"1: actions (configuration changes, saves)\n"+
			"2: button and led events\n"+
			"3: analog events\n"+
			"4: osc delivery\n"+
			"5: debug",
	)
	silent = flag.Bool("silent", false, "no output logging, best performance")
)

func init() {
	flag.Parse()
	if *logLevel >= 5 {
		*logLevel = logger.DebugLvl
	} else {
		*logLevel += 2
	}
}

const midiTransport = "midi"

// setupRouter registers the port transport. Disabled output keeps the port
// open, inbound events still drive LEDs.
func setupRouter(cfg GPIDI, port midi.Sender) *midi.Router {
	router := midi.NewRouter(cfg.DefaultChannel)
	router.Add(midiTransport, port)
	if err := router.Enable(midiTransport, cfg.MIDIOutput); err != nil {
		log.Info(err.Error(), logger.Warning)
	}
	if !router.Enabled(midiTransport) {
		log.Info("midi output disabled", logger.Warning, zap.String("transport", midiTransport))
	}
	return router
}

// openHardware returns pin access and a function releasing it.
func openHardware(cfg GPIDIConfig) (hw.IO, func() error, error) {
	if cfg.GPIDI.Simulate {
		log.Info("simulated hardware, pins are not connected", logger.Warning)
		return hw.NewMock(), func() error { return nil }, nil
	}

	p, err := hw.NewPeriph()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.ADC.Enabled {
		log.Info("analog converter disabled, potentiometers are not available", logger.Warning)
		return p, p.Close, nil
	}
	if err := p.OpenADS1x15(cfg.ADC.Converter); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("analog converter: %w", err)
	}
	return p, p.Close, nil
}

func main() {
	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}

	printerDone := make(chan struct{})
	go printLogs(printerDone, *silent, !*nocolor, *logLevel)

	fatal := func(msg string) {
		log.Info(msg, logger.Error)
		close(logger.Messages)
		<-printerDone
		os.Exit(1)
	}

	if err := createConfigDirectoryIfNeeded(); err != nil {
		fatal(fmt.Sprintf("cannot create config directory: %v", err))
	}

	var cfg = LoadGPIDIConfig(*configPath)
	if *simulate {
		cfg.GPIDI.Simulate = true
	}
	log.Info(fmt.Sprintf("GPIDI config: %+v", cfg), logger.Debug)

	brd, err := board.ByName(cfg.GPIDI.Board)
	if err != nil {
		fatal(err.Error())
	}
	log.Info(fmt.Sprintf("board: %s", brd.Name), logger.Info)

	io, closeHardware, err := openHardware(cfg)
	if err != nil {
		fatal(fmt.Sprintf("hardware not available: %v", err))
	}

	st, err := store.OpenDir(cfg.Store.Path)
	if err != nil {
		fatal(err.Error())
	}

	defaults := config.FactoryDefaults()
	reload := &cache.Reload{}
	configs := cache.New(st, defaults, reload, cache.Options{AutoSave: cfg.Store.AutoSave})

	var port driver.Port
	if cfg.GPIDI.MIDIVirtual {
		port, err = alsa.CreatePort(cfg.GPIDI.MIDIPort)
	} else {
		port, err = alsa.FindPort(cfg.GPIDI.MIDIPort)
	}
	if err != nil {
		if !cfg.GPIDI.Simulate {
			fatal(fmt.Sprintf("cannot create midi port: %v", err))
		}
		log.Info(fmt.Sprintf("midi port not available, events are discarded: %v", err), logger.Warning)
	}

	midiOut := make(chan midi.Event, bridge.DefaultEventBuffer)
	sender := midi.NewEventSender(midiOut)
	router := setupRouter(cfg.GPIDI, sender)

	var queue *osc.Queue
	var link *osc.UDPLink
	var secondary component.Enqueuer
	if cfg.OSC.Enabled {
		link, err = osc.NewUDPLink(0, cfg.OSC.APInterface, cfg.OSC.STAInterface)
		if err != nil {
			fatal(err.Error())
		}
		queue = osc.NewQueue(cfg.OSC.Queue, link)
		secondary = queue
		log.Info(fmt.Sprintf("osc enabled (%s)", cfg.OSC.Queue.Interface), logger.Info,
			zap.String("interface", cfg.OSC.Queue.Interface.String()))
	}

	table := component.NewTable(component.Options{
		Capacity:  cfg.Runtime.Capacity,
		Threshold: cfg.Runtime.PotThreshold,
		Debounce:  cfg.Runtime.Debounce,
		SweepBits: cfg.Runtime.SweepBits,
		Defaults:  defaults,
	}, brd, io, router, secondary)

	b := bridge.New(table, configs, queue, reload, bridge.Options{
		InlineDrain: cfg.GPIDI.DrainInterval == 0,
		Counter:     sender,
	})

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel)

	// midi output outlives ctx, note-offs sent during shutdown have to reach the port
	eventCtx, cancelEvents := context.WithCancel(context.Background())
	if port.Available() {
		log.Info(fmt.Sprintf("midi port: %s", port.String()), logger.Info)
		err = midi.ProcessMidiEvents(eventCtx, &wg, port, midiOut, b.Events())
		if err != nil {
			fatal(err.Error())
		}
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-eventCtx.Done():
					return
				case <-midiOut:
				}
			}
		}()
	}

	n, err := b.Load()
	if err != nil {
		log.Info(fmt.Sprintf("loading components failed: %v", err), logger.Error)
	}
	log.Info(fmt.Sprintf("%d components loaded", n), logger.Info)

	if queue != nil && cfg.GPIDI.DrainInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.Run(ctx, cfg.GPIDI.DrainInterval)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		configs.Run(ctx)
	}()

	if cfg.Store.Watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range store.DetectChanges(ctx, st.Path(), st.Own) {
				reload.Request()
			}
		}()
	}

	if cfg.Screen.Enabled {
		wg.Add(2)
		dd := GenerateDisplayData(ctx, &wg, cfg.Screen, b)
		go display.HandleDisplay(&wg, cfg.Screen, dd)
	}

	err = b.Run(ctx, cfg.GPIDI.PollInterval)
	if err != nil {
		log.Info(fmt.Sprintf("shutdown incomplete: %v", err), logger.Error)
	}

	// give the port a moment to take note-offs queued by shutdown
	for i := 0; len(midiOut) > 0 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}
	cancelEvents()
	if link != nil {
		if err := link.Close(); err != nil {
			log.Info(fmt.Sprintf("closing osc socket failed: %v", err), logger.Warning)
		}
	}
	log.Info("waiting...", logger.Debug)
	signal.Stop(sigs)
	close(sigs)

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	wg.Wait()
	if err := closeHardware(); err != nil {
		log.Info(fmt.Sprintf("releasing hardware failed: %v", err), logger.Warning)
	}
	close(logger.Messages)
	<-printerDone
}
