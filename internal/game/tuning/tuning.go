package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz    int `yaml:"tick_rate_hz"`
	InboxSize     int `yaml:"inbox_size"`
	OutboundQueue int `yaml:"outbound_queue"`

	WSReadDeadlineSec  int `yaml:"ws_read_deadline_sec"`
	WSWriteDeadlineSec int `yaml:"ws_write_deadline_sec"`

	CharDBQueue int `yaml:"chardb_queue"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	return t, nil
}

// Defaults returns a Tuning with every knob at its fallback value.
func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func (t *Tuning) applyDefaults() {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 20
	}
	if t.InboxSize <= 0 {
		t.InboxSize = 4096
	}
	if t.OutboundQueue <= 0 {
		t.OutboundQueue = 256
	}
	if t.WSReadDeadlineSec <= 0 {
		t.WSReadDeadlineSec = 60
	}
	if t.WSWriteDeadlineSec <= 0 {
		t.WSWriteDeadlineSec = 5
	}
	if t.CharDBQueue <= 0 {
		t.CharDBQueue = 8192
	}
}
