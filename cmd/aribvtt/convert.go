package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sid         int
	paletteFlag int
	outputPath  string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert one MPEG-TS file (or stdin) to a WebVTT file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("sid") && cfg.SID != nil {
			sid = *cfg.SID
		}
		if !cmd.Flags().Changed("palette") && cfg.Palette != 0 {
			paletteFlag = cfg.Palette
		}

		var (
			in  io.Reader
			src string
		)
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
			src = args[0]
		} else {
			in = os.Stdin
			src = "stdin"
		}

		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		log.Info("read transport stream", "source", src, "bytes", len(data))

		out, err := convert(data, sid, paletteFlag, log)
		if err != nil {
			return err
		}

		dst := outputPath
		if dst == "" {
			dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".vtt"
			if dst == src {
				dst = src + ".vtt"
			}
		}
		if err := os.WriteFile(dst, out, 0644); err != nil {
			return err
		}
		log.Info("wrote WebVTT track", "path", dst)
		return nil
	},
}

func init() {
	convertCmd.Flags().IntVar(&sid, "sid", -1, "program number to select (-1: an arbitrary program from the PAT; PAT order is not kept)")
	convertCmd.Flags().IntVar(&paletteFlag, "palette", 0, "initial palette index, before any COL control code is seen")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output .vtt path (defaults to the input path with its extension replaced)")
}
