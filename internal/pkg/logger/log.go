package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Messages = make(chan []byte, 512)

const (
	ErrorLvl   = 0
	WarningLvl = 1
	InfoLvl    = 2
	ActionLvl  = 3
	EventsLvl  = 4
	AnalogLvl  = 5
	QueueLvl   = 6

	DebugLvl = 378
)

var (
	Error   = zap.Int("level", ErrorLvl)
	Warning = zap.Int("level", WarningLvl)
	Info    = zap.Int("level", InfoLvl)
	Action  = zap.Int("level", ActionLvl)
	Events  = zap.Int("level", EventsLvl)
	Analog  = zap.Int("level", AnalogLvl)
	Queue   = zap.Int("level", QueueLvl)

	Debug = zap.Int("level", DebugLvl)
)

// chanWriter hands every encoded line over to Messages.
// Lines are dropped when nobody keeps up with reading, logging must never stall the polling loop.
type chanWriter struct {
	sync.Mutex
	dropped uint64
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	var newSlice = make([]byte, len(p))
	copy(newSlice, p)
	select {
	case Messages <- newSlice:
	default:
		w.dropped++
	}
	w.Unlock()
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

var (
	once   sync.Once
	shared *zap.Logger
)

func GetLogger() *zap.Logger {
	once.Do(func() {
		writer := &chanWriter{}
		cfg := zap.NewProductionEncoderConfig()
		cfg.SkipLineEnding = true
		cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
		cfg.LevelKey = ""
		encoder := zapcore.NewJSONEncoder(cfg)
		noSync := zapcore.Lock(writer)

		shared = zap.New(
			zapcore.NewCore(encoder, noSync, zap.DebugLevel),
			zap.AddCaller(),
		)
	})
	return shared
}
