package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/bridge"
	"github.com/gethiox/GPIDI/internal/pkg/display"
)

// idle periods after which the last event line is replaced by the activity graph
const graphAfter = 5

var note, heart = '♪', '❤'

func center(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return fmt.Sprintf("%*s", -width, fmt.Sprintf("%*s", (width+len(r))/2, s))
}

func exitLines(cfg display.ScreenConfig, width int, sent uint64) [4]string {
	var lines [4]string
	if cfg.HaveExitMessage() {
		for i, msg := range cfg.ExitMessage {
			lines[i] = fmt.Sprintf("%-*.*s", width, width, msg)
		}
		return lines
	}
	lines[0] = center("", width)
	lines[1] = center("thanks for playing", width)
	lines[2] = center(fmt.Sprintf("%c GPIDI %c", note, heart), width)
	lines[3] = center(fmt.Sprintf("(events: %d)", sent), width)
	return lines
}

// GenerateDisplayData samples published bridge status every update period.
// The last message is the exit screen, sent after ctx is done.
func GenerateDisplayData(ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig, b *bridge.Bridge) <-chan display.DisplayData {
	data := make(chan display.DisplayData)
	width := cfg.Width()
	period := time.Duration(cfg.UpdateRate) * time.Second
	if period <= 0 {
		period = time.Second
	}

	go func() {
		defer wg.Done()
		defer close(data)

		var graph []uint64
		var idle int
		lastSent := b.Published().MIDISent

	root:
		for {
			status := b.Published()
			perPeriod := status.MIDISent - lastSent
			lastSent = status.MIDISent

			graph = append(graph, perPeriod)
			if len(graph) > width {
				graph = graph[1:]
			}
			if perPeriod == 0 {
				idle++
			} else {
				idle = 0
			}

			lines := display.StatusLines(status, width)
			if idle >= graphAfter {
				lines[3] = display.Graph(graph, width)
			}

			select {
			case <-ctx.Done():
				break root
			case data <- display.DisplayData{Lines: lines}:
			}

			select {
			case <-ctx.Done():
				break root
			case <-time.After(period):
			}
		}

		data <- display.DisplayData{
			Lines:   exitLines(cfg, width, b.Published().MIDISent),
			LastMsg: true,
		}
	}()

	return data
}
