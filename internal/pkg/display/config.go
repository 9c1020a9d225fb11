package display

import "github.com/d2r2/go-hd44780"

type ScreenConfig struct {
	Enabled     bool
	LcdType     hd44780.LcdType
	Bus         int
	Address     uint8
	UpdateRate  int // seconds
	ExitMessage [4]string
}

func (s *ScreenConfig) HaveExitMessage() bool {
	for _, v := range s.ExitMessage {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

func (s *ScreenConfig) Width() int {
	if s.LcdType == hd44780.LCD_16x2 {
		return 16
	}
	return 20
}

func (s *ScreenConfig) Rows() int {
	if s.LcdType == hd44780.LCD_16x2 {
		return 2
	}
	return 4
}
