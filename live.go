package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PixPMusic/midit/internal/capture"
	"github.com/PixPMusic/midit/internal/config"
	"github.com/PixPMusic/midit/internal/midi"
	"github.com/PixPMusic/midit/internal/playback"
	"github.com/PixPMusic/midit/internal/transform"
)

// runLive records the input ports and, every snapshot interval, replays
// what was played since the last snapshot on the output port
func runLive(ctx context.Context, m *midi.Manager, cfg *config.Config, executor *transform.Executor, transforms []transform.Transform) error {
	log := logrus.WithField("component", "live")

	rec := capture.NewRecorder()
	input := capture.NewController(m, rec)
	defer input.Close()

	if err := input.SetPorts(inputPorts(cfg)); err != nil {
		log.Warnf("Some input ports could not be opened: %v", err)
	}
	if len(input.PortNames()) == 0 {
		log.Warn("No input port open, nothing will be recorded")
	}

	player := playback.NewPlayer(outPorts{m}, cfg.OutputLockTimeout())
	defer player.Close()
	player.SetPort(outputPort(cfg))

	ticker := time.NewTicker(cfg.SnapshotInterval())
	defer ticker.Stop()

	log.WithField("session", rec.ID()).Info("Running, press Ctrl+C to stop")
	for {
		select {
		case <-ctx.Done():
			log.Info("Exiting...")
			return nil
		case <-ticker.C:
		}

		if !rec.HasEvents() {
			continue
		}
		notes, events := rec.Snapshot()
		rec.Reset()

		notes, events, err := executor.Execute(notes, events, transforms)
		if err != nil {
			log.Errorf("Transform failed: %v", err)
			continue
		}
		if err := player.Send(ctx, notes, events); err != nil {
			if errors.Is(err, context.Canceled) {
				player.CloseAbruptly()
				log.Info("Exiting...")
				return nil
			}
			log.Errorf("Playback failed: %v", err)
		}
	}
}
