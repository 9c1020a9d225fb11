package board

import "fmt"

// Seeed XIAO ESP32-C3, A3 is not exposed on this board.
var xiaoC3 = New("xiao-esp32c3",
	[]Pin{
		{ID: 2, Label: "D0", Analog: true, Digital: true, PWM: true},
		{ID: 3, Label: "D1", Analog: true, Digital: true, PWM: true},
		{ID: 4, Label: "D2", Analog: true, Digital: true, PWM: true},
		{ID: 5, Label: "D3", Analog: true, Digital: true, PWM: true},
		{ID: 6, Label: "D4", Digital: true, PWM: true},
		{ID: 7, Label: "D5", Digital: true, PWM: true},
		{ID: 21, Label: "D6", Digital: true, PWM: true},
		{ID: 20, Label: "D7", Digital: true, PWM: true},
		{ID: 8, Label: "D8", Digital: true, PWM: true},
		{ID: 9, Label: "D9", Digital: true, PWM: true},
		{ID: 10, Label: "D10", Digital: true, PWM: true},
	},
	[]Alias{
		{"A0", 2}, {"A1", 3}, {"A2", 4},
		{"SDA", 6}, {"SCL", 7},
		{"MOSI", 10}, {"MISO", 9}, {"SCK", 8},
		{"TX", 21}, {"RX", 20},
	},
)

// Seeed XIAO ESP32-S3
var xiaoS3 = New("xiao-esp32s3",
	[]Pin{
		{ID: 1, Label: "D0", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 2, Label: "D1", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 3, Label: "D2", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 4, Label: "D3", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 5, Label: "D4", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 6, Label: "D5", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 7, Label: "D8", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 8, Label: "D9", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 9, Label: "D10", Analog: true, Digital: true, PWM: true, Touch: true},
		{ID: 43, Label: "D6", Digital: true, PWM: true},
		{ID: 44, Label: "D7", Digital: true, PWM: true},
	},
	[]Alias{
		{"A0", 1}, {"A1", 2}, {"A2", 3}, {"A3", 4}, {"A4", 5}, {"A5", 6},
		{"A8", 7}, {"A9", 8}, {"A10", 9},
		{"SDA", 5}, {"SCL", 6},
		{"MOSI", 9}, {"MISO", 8}, {"SCK", 7},
		{"TX", 43}, {"RX", 44},
	},
)

// ADCChannelBase is the first ID of analog-only channels provided by external converters.
const ADCChannelBase ID = 100

func raspberryPi() *Board {
	var pins []Pin
	for gpio := 2; gpio <= 27; gpio++ {
		pins = append(pins, Pin{
			ID:      ID(gpio),
			Label:   fmt.Sprintf("GPIO%d", gpio),
			Digital: true,
			PWM:     gpio == 12 || gpio == 13 || gpio == 18 || gpio == 19,
		})
	}
	// four channels of an external I2C converter, eg. ADS1115
	for ch := 0; ch < 4; ch++ {
		pins = append(pins, Pin{
			ID:     ADCChannelBase + ID(ch),
			Label:  fmt.Sprintf("A%d", ch),
			Analog: true,
		})
	}

	return New("rpi", pins, []Alias{
		{"SDA", 2}, {"SCL", 3},
		{"MOSI", 10}, {"MISO", 9}, {"SCK", 11},
		{"TX", 14}, {"RX", 15},
	})
}

var boards = map[string]*Board{
	xiaoC3.Name: xiaoC3,
	xiaoS3.Name: xiaoS3,
	"rpi":       raspberryPi(),
}
