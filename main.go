package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sirupsen/logrus"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver

	"github.com/PixPMusic/midit/internal/config"
	"github.com/PixPMusic/midit/internal/midi"
	"github.com/PixPMusic/midit/internal/midifile"
	"github.com/PixPMusic/midit/internal/note"
	"github.com/PixPMusic/midit/internal/playback"
	"github.com/PixPMusic/midit/internal/transform"
)

var (
	configPath = flag.String("config", "", "Path to the config file (default: user config dir)")
	listPorts  = flag.Bool("list", false, "List MIDI ports and exit")
	filePath   = flag.String("file", "", "Convert a MIDI file and print its notes")
	asJSON     = flag.Bool("json", false, "Print converted notes as JSON")
	play       = flag.Bool("play", false, "Play the converted file on the output port")
	inPorts    = flag.String("in", "", "Comma separated input ports, overrides the config")
	outPort    = flag.String("out", "", "Output port, overrides the config")
	chain      = flag.String("transform", "", "Transform chain, e.g. retrograde,transpose=12 (overrides the config)")
	safeMode   = flag.Bool("safe", false, "Drop duplicate and out-of-range notes before playback")

	listDevices  = flag.Bool("devices", false, "List configured devices and exit")
	addDevice    = flag.String("add-device", "", "Add a device with this name and save the config")
	updateDevice = flag.String("update-device", "", "ID of a device to change with -device-name, -device-in and -device-out")
	removeDevice = flag.String("remove-device", "", "ID of a device to remove from the config")
	selectDevice = flag.String("select-device", "", "ID of the device whose output port is used")
	deviceName   = flag.String("device-name", "", "New name for -update-device")
	deviceIn     = flag.String("device-in", "", "Input port for -add-device or -update-device")
	deviceOut    = flag.String("device-out", "", "Output port for -add-device or -update-device")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	level, err := cfg.Level()
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	note.SetSafeMode(cfg.SafeMode || *safeMode)

	edit := deviceEdit{
		add:     *addDevice,
		update:  *updateDevice,
		remove:  *removeDevice,
		sel:     *selectDevice,
		name:    *deviceName,
		inPort:  *deviceIn,
		outPort: *deviceOut,
	}
	if !edit.empty() {
		device, err := edit.apply(cfg)
		if err != nil {
			logrus.Fatalf("Failed to edit devices: %v", err)
		}
		if err := saveConfig(cfg); err != nil {
			logrus.Fatalf("Failed to save config: %v", err)
		}
		if device != nil {
			logrus.WithField("id", device.ID).Infof("Saved device %s", device.Name)
		}
		fmt.Println(deviceTable(cfg))
		return
	}
	if *listDevices {
		fmt.Println(deviceTable(cfg))
		return
	}

	transforms := cfg.Transforms
	if *chain != "" {
		if transforms, err = transform.Parse(*chain); err != nil {
			logrus.Fatalf("Invalid transform chain: %v", err)
		}
	}
	executor := transform.NewExecutor()
	if err := executor.Validate(transforms); err != nil {
		logrus.Fatalf("Invalid transform chain: %v", err)
	}

	// Initialize MIDI manager
	midiManager := midi.NewManager()
	defer midiManager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *listPorts:
		fmt.Println(portTable(midiManager.ListInPorts(), midiManager.ListOutPorts()))
	case *filePath != "":
		err = convertFile(ctx, midiManager, cfg, executor, transforms)
	default:
		err = runLive(ctx, midiManager, cfg, executor, transforms)
	}
	if err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.Load()
}

func inputPorts(cfg *config.Config) []string {
	if *inPorts == "" {
		return cfg.InputPorts()
	}
	var names []string
	for _, name := range strings.Split(*inPorts, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func outputPort(cfg *config.Config) string {
	if *outPort != "" {
		return *outPort
	}
	return cfg.OutputPort()
}

// outPorts adapts the manager to the player
type outPorts struct {
	*midi.Manager
}

func (o outPorts) OpenOut(name string) (playback.OutPort, error) {
	out, err := o.Manager.OpenOut(name)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func convertFile(ctx context.Context, m *midi.Manager, cfg *config.Config, executor *transform.Executor, transforms []transform.Transform) error {
	notes, events, err := midifile.ReadFile(*filePath)
	if err != nil {
		return err
	}
	notes, events, err = executor.Execute(notes, events, transforms)
	if err != nil {
		return err
	}

	if *asJSON {
		data, err := notes.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(notes.Table())
	}

	if !*play {
		return nil
	}
	player := playback.NewPlayer(outPorts{m}, cfg.OutputLockTimeout())
	defer player.Close()
	if !player.SetPort(outputPort(cfg)) {
		return fmt.Errorf("output port is busy")
	}
	if err := player.Send(ctx, notes, events); err != nil {
		// interrupted mid-phrase
		player.CloseAbruptly()
	}
	return nil
}

func portTable(ins, outs []string) string {
	rows := make([][]string, 0, len(ins)+len(outs))
	for _, name := range ins {
		rows = append(rows, []string{"in", name})
	}
	for _, name := range outs {
		rows = append(rows, []string{"out", name})
	}
	if len(rows) == 0 {
		return "No MIDI ports found."
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("direction", "port").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}
