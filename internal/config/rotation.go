package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"gopkg.in/yaml.v3"
)

// RotationFile is the YAML document listing each employee's weekly slot cycle:
//
//	epoch: 2024-01-01
//	patterns:
//	  ana: ["06:00", "14:00"]
//	  luis: ["07:00", "12:00", "17:00"]
type RotationFile struct {
	Epoch    string              `yaml:"epoch,omitempty"`
	Patterns map[string][]string `yaml:"patterns"`
}

// RotationEntry is one employee's pattern in employee ID order.
type RotationEntry struct {
	EmployeeID string
	Slots      []string
}

func LoadRotationFile(path string) (*RotationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rotation file: %w", err)
	}
	var rf RotationFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rotation file %s: %w", path, err)
	}
	if rf.Epoch != "" {
		if _, err := calendar.Parse(rf.Epoch); err != nil {
			return nil, fmt.Errorf("rotation file %s: invalid epoch %q", path, rf.Epoch)
		}
	}
	return &rf, nil
}

// EpochOr returns the file's epoch, or fallback when the file leaves it out.
func (rf *RotationFile) EpochOr(fallback calendar.Date) calendar.Date {
	if rf.Epoch == "" {
		return fallback
	}
	d, err := calendar.Parse(rf.Epoch)
	if err != nil {
		return fallback
	}
	return d
}

func (rf *RotationFile) Entries() []RotationEntry {
	entries := make([]RotationEntry, 0, len(rf.Patterns))
	for id, slots := range rf.Patterns {
		entries = append(entries, RotationEntry{EmployeeID: id, Slots: slots})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EmployeeID < entries[j].EmployeeID })
	return entries
}
