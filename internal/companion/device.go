package companion

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

var errNotConnected = errors.New("no connected device")

type DeviceState int

const (
	Disconnected DeviceState = iota
	Connecting
	Connected
)

func (s DeviceState) String() string {
	switch s {
	case Connected:
		return "Connected"
	case Connecting:
		return "Connecting"
	case Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Device is a BLE peripheral seen during a scan
type Device interface {
	Address() string
	LocalName() string
	State() DeviceState
	IsConnected() bool
	HasServiceUUID(uuid string) bool
	ScanLastSeen() time.Time
	WaitForConnection(timeout time.Duration) error
	EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error
	DisableNotifications(serviceUuid string, characteristicUuid string) error
}

type bleDevice struct {
	logger  *log.Logger
	address bluetooth.Address

	mu              sync.Mutex
	localName       string
	scanLastSeen    time.Time
	connectedDevice *bluetooth.Device // nil if not connected
	state           DeviceState
	serviceUuids    []string

	// Serializes characteristic discovery and notification setup
	bleMu                 sync.Mutex
	servicesDiscovered    bool
	serviceByUuid         map[string]*bluetooth.DeviceService
	characteristicsLoaded map[string]bool
	characteristicByKey   map[string]*bluetooth.DeviceCharacteristic
}

var _ Device = (*bleDevice)(nil)

func newBleDevice(logger *log.Logger, address bluetooth.Address) *bleDevice {
	if logger == nil {
		panic("bleDevice: logger cannot be nil")
	}
	return &bleDevice{
		logger:                logger,
		address:               address,
		localName:             "Unknown",
		scanLastSeen:          time.Unix(0, 0),
		serviceByUuid:         make(map[string]*bluetooth.DeviceService),
		characteristicsLoaded: make(map[string]bool),
		characteristicByKey:   make(map[string]*bluetooth.DeviceCharacteristic),
	}
}

func (b *bleDevice) Address() string {
	return b.address.String()
}

func (b *bleDevice) LocalName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.localName
}

func (b *bleDevice) State() DeviceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *bleDevice) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectedDevice != nil
}

func (b *bleDevice) HasServiceUUID(uuid string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.serviceUuids, uuid)
}

func (b *bleDevice) ScanLastSeen() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scanLastSeen
}

func (b *bleDevice) updateFromScan(result bluetooth.ScanResult, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scanLastSeen = now
	if name := result.LocalName(); name != "" {
		b.localName = name
	}
	uuids := result.ServiceUUIDs()
	if len(uuids) > 0 {
		b.serviceUuids = b.serviceUuids[:0]
		for _, u := range uuids {
			b.serviceUuids = append(b.serviceUuids, u.String())
		}
	}
}

func (b *bleDevice) setConnected(device *bluetooth.Device) {
	b.mu.Lock()
	b.connectedDevice = device
	if device != nil {
		b.state = Connected
		b.mu.Unlock()
		return
	}
	b.state = Disconnected
	b.mu.Unlock()

	// discovered handles are invalid after a disconnect
	b.bleMu.Lock()
	b.servicesDiscovered = false
	clear(b.serviceByUuid)
	clear(b.characteristicsLoaded)
	clear(b.characteristicByKey)
	b.bleMu.Unlock()
}

func (b *bleDevice) setState(state DeviceState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

func (b *bleDevice) getConnectedDevice() *bluetooth.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectedDevice
}

func (b *bleDevice) WaitForConnection(timeout time.Duration) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		if b.IsConnected() {
			return nil
		}
		select {
		case <-ticker.C:
		case <-deadline:
			return fmt.Errorf("timeout after %v waiting for connection", timeout)
		}
	}
}

func (b *bleDevice) EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error {
	b.bleMu.Lock()
	defer b.bleMu.Unlock()

	b.logger.Printf("Companion: enabling notifications service=%s char=%s", serviceUuid, characteristicUuid)
	characteristic, err := b.getCharacteristic(serviceUuid, characteristicUuid)
	if err != nil {
		return err
	}
	if err := characteristic.EnableNotifications(callbackFunc); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	return nil
}

func (b *bleDevice) DisableNotifications(serviceUuid string, characteristicUuid string) error {
	b.bleMu.Lock()
	defer b.bleMu.Unlock()

	characteristic, err := b.getCharacteristic(serviceUuid, characteristicUuid)
	if err != nil {
		return err
	}
	// nil callback disables notifications
	if err := characteristic.EnableNotifications(nil); err != nil {
		return fmt.Errorf("failed to disable notifications: %w", err)
	}
	return nil
}

// getCharacteristic resolves a characteristic, discovering all services and
// all characteristics of a service at most once: discovering services one by
// one interrupts notifications on services found earlier.
// Caller must hold bleMu.
func (b *bleDevice) getCharacteristic(serviceUuid string, characteristicUuid string) (*bluetooth.DeviceCharacteristic, error) {
	connected := b.getConnectedDevice()
	if connected == nil {
		return nil, errNotConnected
	}
	key := serviceUuid + "_" + characteristicUuid
	if c, ok := b.characteristicByKey[key]; ok {
		return c, nil
	}

	if !b.servicesDiscovered {
		services, err := connected.DiscoverServices(nil)
		if err != nil {
			return nil, fmt.Errorf("error discovering services: %w", err)
		}
		for i := range services {
			svc := &services[i]
			b.serviceByUuid[svc.UUID().String()] = svc
		}
		b.servicesDiscovered = true
	}

	service, ok := b.serviceByUuid[serviceUuid]
	if !ok {
		return nil, fmt.Errorf("service %v not found on device", serviceUuid)
	}

	if !b.characteristicsLoaded[serviceUuid] {
		chars, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("could not discover characteristics for service %v: %w", serviceUuid, err)
		}
		for i := range chars {
			c := &chars[i]
			b.characteristicByKey[serviceUuid+"_"+c.UUID().String()] = c
		}
		b.characteristicsLoaded[serviceUuid] = true
	}

	c, ok := b.characteristicByKey[key]
	if !ok {
		return nil, fmt.Errorf("characteristic %v not found in service %v", characteristicUuid, serviceUuid)
	}
	return c, nil
}
