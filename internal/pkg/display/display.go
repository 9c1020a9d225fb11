package display

import (
	"fmt"
	"sync"

	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	d2rlog "github.com/d2r2/go-logger"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
)

var log = logger.GetLogger()

func getDisplay(addr uint8, bus int, lcdType device.LcdType) (*device.Lcd, *i2c.I2C, error) {
	d2rlog.ChangePackageLogLevel("i2c", d2rlog.InfoLevel)
	d2rlog.ChangePackageLogLevel("hd44780", d2rlog.InfoLevel)

	lcdRaw, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, nil, err
	}

	lcd, err := device.NewLcd(lcdRaw, lcdType)
	if err != nil {
		return nil, lcdRaw, err
	}

	return lcd, lcdRaw, nil
}

func loadCustomCharacters(lcd *device.Lcd, characters [][]byte) {
	for i, char := range characters {
		var location = uint8(i) & 0x7

		lcd.Command(device.CMD_CGRAM_Set | (location << 3))
		lcd.Write(char)
	}
}

// activity graph, one block per second
var barChars = [][]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F},
	{0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F},
	{0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F},
	{0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F},
	{0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F},
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F},
}

// exit screen, note and heart
var exitChars = [][]byte{
	{0x02, 0x03, 0x02, 0x02, 0x0E, 0x1E, 0x0C, 0x00},
	{0x00, 0x00, 0x0A, 0x1F, 0x1F, 0x0E, 0x04, 0x00},
}

var conversionMap = map[rune]byte{
	'▁': 0,
	'▂': 1,
	'▃': 2,
	'▄': 3,
	'▅': 4,
	'▆': 5,
	'▇': 6,
	'█': 7,
	'♪': 0,
	'❤': 1,
}

func replaceCharsForDisplay(s string) string {
	var ns string
	for _, r := range s {
		n, ok := conversionMap[r]
		if ok {
			ns += string(n)
		} else {
			ns += string(r)
		}
	}
	return ns
}

type DisplayData struct {
	Lines   [4]string
	LastMsg bool // exit message uses different custom character set
}

func writeLines(lcd *device.Lcd, lines [4]string, n int) {
	for i := 0; i < n; i++ {
		lcd.SetPosition(i, 0)
		lcd.Write([]byte(replaceCharsForDisplay(lines[i])))
	}
}

func HandleDisplay(wg *sync.WaitGroup, cfg ScreenConfig, dd <-chan DisplayData) {
	defer wg.Done()
	lcd, bus, err := getDisplay(cfg.Address, cfg.Bus, cfg.LcdType)
	if err != nil {
		log.Info(fmt.Sprintf("display not available: %v", err), logger.Warning)
		if bus != nil {
			bus.Close()
		}
		for range dd {
		}
		return
	}

	n := cfg.Rows()
	loadCustomCharacters(lcd, barChars)
	lcd.BacklightOn()
	lcd.Clear()

	for data := range dd {
		if data.LastMsg {
			loadCustomCharacters(lcd, exitChars)
			lcd.Clear()
		}
		writeLines(lcd, data.Lines, n)
	}

	bus.Close()
	log.Info("display closed", logger.Debug)
}
