package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/PixPMusic/midit/internal/config"
)

var errUnknownDevice = errors.New("unknown device")

// deviceEdit collects the device flags of one invocation
type deviceEdit struct {
	add     string
	update  string
	remove  string
	sel     string
	name    string
	inPort  string
	outPort string
}

func (e deviceEdit) empty() bool {
	return e.add == "" && e.update == "" && e.remove == "" && e.sel == ""
}

// apply edits cfg and returns the device that was added or changed, if any
func (e deviceEdit) apply(cfg *config.Config) (*config.DeviceConfig, error) {
	var touched *config.DeviceConfig

	if e.add != "" {
		device := config.NewDeviceConfig()
		device.Name = e.add
		device.InPort = e.inPort
		device.OutPort = e.outPort
		cfg.AddDevice(device)
		touched = cfg.GetDevice(device.ID)
	}

	if e.update != "" {
		existing := cfg.GetDevice(e.update)
		if existing == nil {
			return nil, fmt.Errorf("%w: %s", errUnknownDevice, e.update)
		}
		device := *existing
		if e.name != "" {
			device.Name = e.name
		}
		if e.inPort != "" {
			device.InPort = e.inPort
		}
		if e.outPort != "" {
			device.OutPort = e.outPort
		}
		cfg.UpdateDevice(device)
		touched = cfg.GetDevice(device.ID)
	}

	if e.sel != "" {
		if cfg.GetDevice(e.sel) == nil {
			return nil, fmt.Errorf("%w: %s", errUnknownDevice, e.sel)
		}
		cfg.OutputDeviceID = e.sel
	}

	if e.remove != "" {
		if cfg.GetDevice(e.remove) == nil {
			return nil, fmt.Errorf("%w: %s", errUnknownDevice, e.remove)
		}
		cfg.RemoveDevice(e.remove)
		if touched != nil && touched.ID == e.remove {
			touched = nil
		}
	}
	return touched, nil
}

func saveConfig(cfg *config.Config) error {
	if *configPath != "" {
		return cfg.SaveFile(*configPath)
	}
	return cfg.Save()
}

func deviceTable(cfg *config.Config) string {
	if len(cfg.Devices) == 0 {
		return "No devices configured."
	}
	rows := make([][]string, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		selected := ""
		if d.ID == cfg.OutputDeviceID {
			selected = "*"
		}
		rows = append(rows, []string{selected, d.ID, d.Name, d.InPort, d.OutPort})
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "id", "name", "in", "out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}
