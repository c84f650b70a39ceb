package main

import (
	"context"
	"fmt"

	"fusionkit/internal/engine"
	"fusionkit/internal/frameops"
	"fusionkit/internal/logging"
	"fusionkit/internal/sceneops"
)

// App instance names, matching the toolkit environment configuration.
const (
	appWorkfiles = "tk-multi-workfiles2"
	appFrameOps  = "tk-multi-setframerange"
)

// registerAppCommands adds the menu commands of the headless apps.
func registerAppCommands(e *engine.Engine, c *commandContext) {
	scenes := sceneops.New(c.sessionValue(), e.Logger(appWorkfiles))
	frames := frameops.New(c.sessionValue(), e.Logger(appFrameOps))
	frameLogger := e.Logger(appFrameOps)

	_ = e.RegisterCommand("File Save", func(ctx context.Context) error {
		_, err := scenes.Execute(ctx, sceneops.Request{Operation: sceneops.OpSave, ParentAction: "save_file"})
		return err
	}, engine.Properties{
		ShortName:   "file_save",
		Description: "Saves the current comp.",
		App:         appWorkfiles,
	})

	_ = e.RegisterCommand("Current Work File", func(ctx context.Context) error {
		res, err := scenes.Execute(ctx, sceneops.Request{Operation: sceneops.OpCurrentPath})
		if err != nil {
			return err
		}
		path := res.Path
		if path == "" {
			path = "(untitled)"
		}
		e.Logger(appWorkfiles).Info("current work file", logging.String(logging.FieldPath, path))
		return nil
	}, engine.Properties{
		ShortName:   "current_work_file",
		Description: "Reports the path of the current comp.",
		App:         appWorkfiles,
	})

	_ = e.RegisterCommand("Frame Range", func(ctx context.Context) error {
		in, out, err := frames.GetFrameRange(ctx)
		if err != nil {
			return err
		}
		frameLogger.Info(fmt.Sprintf("current frame range %d-%d", in, out))
		return nil
	}, engine.Properties{
		ShortName:   "frame_range",
		Description: "Reports the comp's global frame range.",
		App:         appFrameOps,
	})
}
