package gamepad

import "math"

// AxisTarget is what a raw axis drives.
type AxisTarget uint8

const (
	AxisLeftX AxisTarget = iota
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisLT
	AxisRT
)

// AxisMapping defines how a raw axis index maps to a stick axis or trigger.
type AxisMapping struct {
	Index  int32
	Target AxisTarget
	Invert bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

func (m AxisMapping) IsTrigger() bool {
	return m.Target == AxisLT || m.Target == AxisRT
}

// ButtonMapping defines how a raw button index maps to a Button.
type ButtonMapping struct {
	Index  int32
	Target Button
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	return math.Max(0, math.Min(1, v))
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

var standardAxes = []AxisMapping{
	{Index: 0, Target: AxisLeftX},
	{Index: 1, Target: AxisLeftY, Invert: true},
	{Index: 2, Target: AxisRightX},
	{Index: 3, Target: AxisRightY, Invert: true},
	{Index: 4, Target: AxisLT, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: AxisRT, RawMin: -32768, RawMax: 32767},
}

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: standardAxes,
	Buttons: []ButtonMapping{
		{0, ButtonA},
		{1, ButtonB},
		{2, ButtonX},
		{3, ButtonY},
		{4, ButtonLB},
		{5, ButtonRB},
		{6, ButtonSelect},
		{7, ButtonStart},
		{8, ButtonL3},
		{9, ButtonR3},
		{10, ButtonHome},
	},
	HasHat: true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: standardAxes,
	Buttons: []ButtonMapping{
		{0, ButtonA},      // Cross
		{1, ButtonB},      // Circle
		{2, ButtonX},      // Square
		{3, ButtonY},      // Triangle
		{4, ButtonSelect}, // Share / Create
		{5, ButtonHome},   // PS button
		{6, ButtonStart},  // Options
		{7, ButtonL3},
		{8, ButtonR3},
		{9, ButtonLB},  // L1
		{10, ButtonRB}, // R1
	},
	HasHat: true,
}

// The Pro Controller reports ZL/ZR as buttons 11 and 12 rather than axes.
var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: standardAxes[:4],
	Buttons: []ButtonMapping{
		{0, ButtonA},
		{1, ButtonB},
		{2, ButtonX},
		{3, ButtonY},
		{4, ButtonLB},
		{5, ButtonRB},
		{6, ButtonSelect},
		{7, ButtonStart},
		{8, ButtonL3},
		{9, ButtonR3},
		{10, ButtonHome},
		{11, ButtonLT},
		{12, ButtonRT},
	},
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    standardAxes,
	Buttons: xboxMapping.Buttons,
	HasHat:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the mapping for a device identified by vendor/product ID,
// falling back to the generic mapping.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	if m, ok := knownDevices[deviceKey{VendorID: vendorID, ProductID: productID}]; ok {
		return m
	}
	return genericMapping
}
