package gamepad

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"
)

const (
	defaultDeadzone = 0.05
	pollDelayNS     = 16_000_000 // ~60Hz
	triggerPressed  = 0.5

	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08
)

var ErrInit = errors.New("gamepad: SDL init failed")

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *DeviceMapping
	name     string
	id       sdl.JoystickID
}

// Reader polls the SDL3 joystick API and emits a GamepadState for the active
// controller whenever it changes. Only one controller is active at a time:
// the first one connected, then the next one when it goes away.
type Reader struct {
	deadzone  float64
	state     GamepadState
	prevState GamepadState
	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID
	hasActive bool
	changes   chan GamepadState
	mu        sync.RWMutex
}

func NewReader(deadzone float64) *Reader {
	if deadzone <= 0 {
		deadzone = defaultDeadzone
	}
	return &Reader{
		deadzone:  deadzone,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		changes:   make(chan GamepadState, 64),
	}
}

// Changes returns the channel on which state changes are sent. It is closed
// when Run returns.
func (r *Reader) Changes() <-chan GamepadState {
	return r.changes
}

// CurrentState returns a snapshot of the current gamepad state.
func (r *Reader) CurrentState() GamepadState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Run initializes SDL and runs the event and polling loop on a locked OS
// thread until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.changes)

	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("%w: %s", ErrInit, sdl.GetError())
	}
	defer sdl.Quit()

	log.Println("SDL3 Joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)
		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		log.Printf("Failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	info := &joystickInfo{
		joystick: js,
		mapping:  GetMapping(vendorID, productID),
		name:     sdl.GetJoystickName(js),
		id:       jsID,
	}
	r.joysticks[jsID] = info

	log.Printf("Joystick connected: %s (VID=%04X PID=%04X) mapping=%s buttons=%d",
		info.name, vendorID, productID, info.mapping.Name, sdl.GetNumJoystickButtons(js))

	if !r.hasActive {
		r.activate(info)
	}
}

func (r *Reader) activate(info *joystickInfo) {
	r.activeID = info.id
	r.hasActive = true
	log.Printf("Active joystick set: %s (ID=%d)", info.name, info.id)

	r.mu.Lock()
	r.state = GamepadState{
		Connected:      true,
		Name:           info.name,
		ControllerType: info.mapping.Name,
		At:             time.Now(),
	}
	r.prevState = r.state
	r.mu.Unlock()

	r.emitState()
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	log.Printf("Joystick disconnected: %s", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	if !r.hasActive || r.activeID != instanceID {
		return
	}
	r.hasActive = false

	for _, next := range r.joysticks {
		if sdl.JoystickConnected(next.joystick) {
			// Report the gap so holds on the old controller are discarded.
			r.setDisconnected()
			r.activate(next)
			return
		}
	}
	r.setDisconnected()
}

func (r *Reader) setDisconnected() {
	r.mu.Lock()
	r.state = GamepadState{At: time.Now()}
	r.prevState = r.state
	r.mu.Unlock()
	r.emitState()
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}

func (r *Reader) pollState() {
	if !r.hasActive {
		return
	}

	info, exists := r.joysticks[r.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return
	}

	js := info.joystick
	state := GamepadState{
		Connected:      true,
		ControllerType: info.mapping.Name,
		Name:           info.name,
		At:             time.Now(),
	}

	for _, am := range info.mapping.Axes {
		raw := sdl.GetJoystickAxis(js, am.Index)
		if am.IsTrigger() {
			if NormalizeTrigger(raw, am.RawMin, am.RawMax) < triggerPressed {
				continue
			}
			if am.Target == AxisLT {
				state.Buttons = state.Buttons.With(ButtonLT)
			} else {
				state.Buttons = state.Buttons.With(ButtonRT)
			}
			continue
		}

		val := NormalizeAxis(raw)
		if am.Invert {
			val = -val
		}
		val = ApplyDeadzone(val, r.deadzone)
		switch am.Target {
		case AxisLeftX:
			state.Left.X = val
		case AxisLeftY:
			state.Left.Y = val
		case AxisRightX:
			state.Right.X = val
		case AxisRightY:
			state.Right.Y = val
		}
	}

	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range info.mapping.Buttons {
		if bm.Index >= numButtons {
			continue
		}
		if sdl.GetJoystickButton(js, bm.Index) {
			state.Buttons = state.Buttons.With(bm.Target)
		}
	}

	if info.mapping.HasHat && sdl.GetNumJoystickHats(js) > 0 {
		state.Buttons |= hatButtons(sdl.GetJoystickHat(js, 0))
	}

	r.mu.Lock()
	if !Changed(r.prevState, state) {
		r.mu.Unlock()
		return
	}
	r.state = state
	r.prevState = state
	r.mu.Unlock()
	r.emitState()
}

func hatButtons(hat uint8) ButtonSet {
	var s ButtonSet
	if hat&hatUp != 0 {
		s = s.With(ButtonUp)
	}
	if hat&hatRight != 0 {
		s = s.With(ButtonRight)
	}
	if hat&hatDown != 0 {
		s = s.With(ButtonDown)
	}
	if hat&hatLeft != 0 {
		s = s.With(ButtonLeft)
	}
	return s
}

func (r *Reader) emitState() {
	r.mu.RLock()
	s := r.state
	r.mu.RUnlock()

	select {
	case r.changes <- s:
	default:
		// Drop if channel is full to avoid blocking the SDL thread
	}
}
