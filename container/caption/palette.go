package caption

import (
	"image/color"

	"github.com/ausocean/aribvtt/container/caption/palette"
)

func defaultForeground() color.RGBA { return palette.DefaultForeground }
func defaultBackground() color.RGBA { return palette.DefaultBackground }
