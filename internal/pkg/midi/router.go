package midi

import (
	"fmt"
	"sync"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"go.uber.org/zap"
)

type route struct {
	name    string
	sender  Sender
	enabled bool
}

// Router fans every message out to all enabled transports.
// Channel 0 stands for the default channel.
type Router struct {
	mutex          sync.RWMutex
	routes         []*route
	defaultChannel uint8
}

func NewRouter(defaultChannel uint8) *Router {
	if defaultChannel < 1 || defaultChannel > 16 {
		defaultChannel = 1
	}
	return &Router{defaultChannel: defaultChannel}
}

// Add registers enabled transport, an existing one with the same name is replaced.
func (r *Router) Add(name string, s Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, rt := range r.routes {
		if rt.name == name {
			rt.sender = s
			rt.enabled = true
			return
		}
	}
	r.routes = append(r.routes, &route{name: name, sender: s, enabled: true})
	log.Info(fmt.Sprintf("midi transport added: %s", name), logger.Debug, zap.String("transport", name))
}

func (r *Router) Enable(name string, enabled bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, rt := range r.routes {
		if rt.name == name {
			rt.enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("transport \"%s\" not found", name)
}

func (r *Router) Enabled(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, rt := range r.routes {
		if rt.name == name {
			return rt.enabled
		}
	}
	return false
}

func (r *Router) channel(ch uint8) uint8 {
	if ch == 0 {
		return r.defaultChannel
	}
	return ch
}

func (r *Router) each(fn func(s Sender)) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, rt := range r.routes {
		if rt.enabled {
			fn(rt.sender)
		}
	}
}

func (r *Router) NoteOn(channel, note, velocity uint8) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.NoteOn(ch, note, velocity) })
}

func (r *Router) NoteOff(channel, note, velocity uint8) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.NoteOff(ch, note, velocity) })
}

func (r *Router) ControlChange(channel, controller, value uint8) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.ControlChange(ch, controller, value) })
}

func (r *Router) ProgramChange(channel, program uint8) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.ProgramChange(ch, program) })
}

func (r *Router) PitchBend(channel uint8, bend int16) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.PitchBend(ch, bend) })
}

func (r *Router) Aftertouch(channel, pressure uint8) {
	ch := r.channel(channel)
	r.each(func(s Sender) { s.Aftertouch(ch, pressure) })
}

func (r *Router) Clock() {
	r.each(func(s Sender) { s.Clock() })
}
