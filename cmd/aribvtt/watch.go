package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchSid int
var watchPalette int

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory for new .ts/.m2ts segments and convert each as it appears",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.WatchDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("watch: no directory given on the command line or in --config's watch_dir")
		}
		if !cmd.Flags().Changed("sid") && cfg.SID != nil {
			watchSid = *cfg.SID
		}
		if !cmd.Flags().Changed("palette") && cfg.Palette != 0 {
			watchPalette = cfg.Palette
		}

		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Add(dir); err != nil {
			return err
		}

		log.Info("watching directory for new segments", "dir", dir)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !isSegment(ev.Name) {
					continue
				}
				if err := convertSegment(ev.Name, watchSid, watchPalette); err != nil {
					log.Error("could not convert segment", "path", ev.Name, "error", err.Error())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Warning("watcher error", "error", err.Error())
			}
		}
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchSid, "sid", -1, "program number to select (-1: an arbitrary program from the PAT; PAT order is not kept)")
	watchCmd.Flags().IntVar(&watchPalette, "palette", 0, "initial palette index, before any COL control code is seen")
}

func isSegment(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".ts" || ext == ".m2ts"
}

func convertSegment(path string, sid, palette int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := convert(data, sid, palette, log)
	if err != nil {
		return err
	}
	dst := strings.TrimSuffix(path, filepath.Ext(path)) + ".vtt"
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return err
	}
	log.Info("wrote WebVTT track", "path", dst)
	return nil
}
