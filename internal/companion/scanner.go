package companion

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/workout-runtime/internal/events"
	"github.com/lowaak/workout-runtime/internal/go_func_utils"
)

// Scanner finds and connects BLE peripherals
type Scanner interface {
	Enable() error
	StartScan(serviceUuidFilter []string)
	StopScan() error
	IsScanning() bool
	Connect(device Device) error
	Disconnect(device Device) error
	ScanDevices() []Device
	ConnectedDevices() []Device
	ListenToConnectedDevices(ch chan<- []Device) func()
	Shutdown()
}

var _ Scanner = (*BLEScanner)(nil)

// BLEScanner is the Scanner backed by the host Bluetooth adapter
type BLEScanner struct {
	adapter               *bluetooth.Adapter
	logger                *log.Logger
	scanTimeout           time.Duration
	connectedDevicesEvent *events.ChannelEvent[[]Device]

	mu                sync.RWMutex
	devicesByAddress  map[string]*bleDevice
	scanning          bool
	scanContextCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBLEScanner creates a BLEScanner. Devices not seen for scanTimeout are
// forgotten unless connected.
func NewBLEScanner(adapter *bluetooth.Adapter, logger *log.Logger, scanTimeout time.Duration) *BLEScanner {
	if adapter == nil {
		panic("BLEScanner: adapter cannot be nil")
	}
	if logger == nil {
		panic("BLEScanner: logger cannot be nil")
	}
	if scanTimeout <= 0 {
		scanTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BLEScanner{
		adapter:               adapter,
		logger:                logger,
		scanTimeout:           scanTimeout,
		connectedDevicesEvent: events.NewChannelEvent[[]Device](true),
		devicesByAddress:      make(map[string]*bleDevice),
		ctx:                   ctx,
		cancel:                cancel,
	}
}

func (m *BLEScanner) device(address bluetooth.Address) *bleDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devicesByAddress[address.String()]
	if !ok {
		d = newBleDevice(m.logger, address)
		m.devicesByAddress[address.String()] = d
	}
	return d
}

func (m *BLEScanner) lookup(device Device) (*bleDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devicesByAddress[device.Address()]
	if !ok {
		return nil, fmt.Errorf("unknown device %s", device.Address())
	}
	return d, nil
}

func (m *BLEScanner) Enable() error {
	m.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		d := m.device(device.Address)
		if connected {
			m.logger.Printf("Companion: device connected: %s", device.Address.String())
			d.setConnected(&device)
		} else {
			m.logger.Printf("Companion: device disconnected: %s", device.Address.String())
			d.setConnected(nil)
		}
		m.connectedDevicesEvent.Notify(m.ConnectedDevices())
	})
	return m.adapter.Enable()
}

func (m *BLEScanner) StartScan(serviceUuidFilter []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filterSet := make(map[string]struct{}, len(serviceUuidFilter))
	for _, f := range serviceUuidFilter {
		filterSet[f] = struct{}{}
	}
	m.logger.Printf("Companion: starting scan, filter %v", serviceUuidFilter)

	if m.scanning && m.scanContextCancel != nil {
		m.scanContextCancel()
	}
	m.scanning = true
	scanCtx, cancel := context.WithCancel(m.ctx)
	m.scanContextCancel = cancel

	go_func_utils.SafeGoWG(m.logger, &m.wg, func() {
		m.cleanupStaleDevices(scanCtx)
	})

	go_func_utils.SafeGoWG(m.logger, &m.wg, func() {
		defer m.logger.Println("Companion: scan loop exited")
		err := m.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if scanCtx.Err() != nil {
				return
			}
			if len(filterSet) > 0 && !matchesFilter(result, filterSet) {
				return
			}
			d := m.device(result.Address)
			d.updateFromScan(result, time.Now())
		})
		if err != nil {
			m.logger.Printf("Companion: scan error: %v", err)
		}
	})
}

func matchesFilter(result bluetooth.ScanResult, filterSet map[string]struct{}) bool {
	for _, uuid := range result.ServiceUUIDs() {
		if _, ok := filterSet[uuid.String()]; ok {
			return true
		}
	}
	return false
}

func (m *BLEScanner) cleanupStaleDevices(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for address, d := range m.devicesByAddress {
				if !d.IsConnected() && now.Sub(d.ScanLastSeen()) > m.scanTimeout {
					delete(m.devicesByAddress, address)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *BLEScanner) StopScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.scanning {
		return nil
	}
	m.scanning = false
	if m.scanContextCancel != nil {
		m.scanContextCancel()
		m.scanContextCancel = nil
	}
	return m.adapter.StopScan()
}

func (m *BLEScanner) IsScanning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scanning
}

// Connect initiates a connection. Completion is reported through the adapter's
// connect handler; use Device.WaitForConnection to block on it.
func (m *BLEScanner) Connect(device Device) error {
	d, err := m.lookup(device)
	if err != nil {
		return err
	}
	d.setState(Connecting)
	if _, err := m.adapter.Connect(d.address, bluetooth.ConnectionParams{}); err != nil {
		d.setState(Disconnected)
		return fmt.Errorf("connect %s: %w", device.Address(), err)
	}
	return nil
}

func (m *BLEScanner) Disconnect(device Device) error {
	d, err := m.lookup(device)
	if err != nil {
		return err
	}
	inner := d.getConnectedDevice()
	if inner == nil {
		return nil
	}
	return inner.Disconnect()
}

func (m *BLEScanner) ScanDevices() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	result := make([]Device, 0, len(m.devicesByAddress))
	for _, d := range m.devicesByAddress {
		if now.Sub(d.ScanLastSeen()) <= m.scanTimeout {
			result = append(result, d)
		}
	}
	return result
}

func (m *BLEScanner) ConnectedDevices() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Device, 0)
	for _, d := range m.devicesByAddress {
		if d.IsConnected() {
			result = append(result, d)
		}
	}
	return result
}

// ListenToConnectedDevices registers a channel to receive connected device
// list changes. Returns a deregistration function.
func (m *BLEScanner) ListenToConnectedDevices(ch chan<- []Device) func() {
	return m.connectedDevicesEvent.Listen(ch)
}

// Shutdown disconnects every device and stops all goroutines
func (m *BLEScanner) Shutdown() {
	m.logger.Println("Companion: scanner shutting down")
	for _, d := range m.ConnectedDevices() {
		if err := m.Disconnect(d); err != nil {
			m.logger.Printf("Companion: error disconnecting %s: %v", d.Address(), err)
		}
	}
	if err := m.StopScan(); err != nil {
		m.logger.Printf("Companion: error stopping scan: %v", err)
	}
	m.cancel()
	m.wg.Wait()
}
