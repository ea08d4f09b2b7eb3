package companion

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type preferencesData struct {
	PreferredSensorAddress string `json:"preferred_sensor_address"`
}

// Preferences remembers the last sensor that streamed so the next session
// tries it first. Safe for concurrent use.
type Preferences struct {
	filePath string
	logger   *log.Logger

	mu   sync.Mutex
	data preferencesData
}

// DefaultPreferencesPath returns ~/.workout-runtime/companion.json, falling
// back to the working directory when the home directory is unknown
func DefaultPreferencesPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".workout-runtime", "companion.json")
}

// NewPreferences loads preferences from filePath. A missing or unreadable file
// starts empty.
func NewPreferences(filePath string, logger *log.Logger) *Preferences {
	if logger == nil {
		panic("Preferences: logger cannot be nil")
	}
	p := &Preferences{filePath: filePath, logger: logger}
	p.load()
	return p
}

// PreferredSensor returns the remembered sensor address, or "" if none
func (p *Preferences) PreferredSensor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.PreferredSensorAddress
}

// SetPreferredSensor remembers address and writes it to disk
func (p *Preferences) SetPreferredSensor(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.PreferredSensorAddress == address {
		return
	}
	p.logger.Printf("Preferences: preferred sensor -> %q", address)
	p.data.PreferredSensorAddress = address
	p.save()
}

func (p *Preferences) load() {
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("Preferences: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("Preferences: load %s failed to parse: %v", p.filePath, err)
		p.data = preferencesData{}
		return
	}
	p.logger.Printf("Preferences: load %s -> %q", p.filePath, p.data.PreferredSensorAddress)
}

// save must be called with mu held
func (p *Preferences) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("Preferences: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("Preferences: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("Preferences: save %s failed: %v", p.filePath, err)
	}
}
