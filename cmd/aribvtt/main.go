// Command aribvtt converts ARIB STD-B24 captions carried in an MPEG-2
// transport stream into a WebVTT subtitle track.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
