// pivot - cursor-inferred orbit navigation in the terminal.
// Navigate glTF/GLB scenes (or a built-in demo scene) by dragging with the
// navigation button: the rotation center is inferred from whatever lies
// under the cursor when the drag starts.
//
// Default controls:
//
//	Middle drag        - Orbit around the object under the cursor
//	Shift + drag       - Pan
//	Ctrl + drag        - Zoom
//	Alt + drag         - Step through preset views
//	X                  - Toggle solid / wireframe
//	P                  - Toggle parallel projection
//	F                  - Frame the whole scene
//	N                  - Toggle navigation on/off
//	?                  - Toggle HUD overlay
//	Esc / Ctrl+C       - Quit
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
