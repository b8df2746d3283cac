// modelinfo inspects OBJ and glTF models the way the viewer would frame them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/terraview/internal/logger"
)

var (
	mtlFlag     string
	typeFlag    string
	fovFlag     float32
	jsonFlag    bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "modelinfo <model>",
	Short: "Inspect a 3D model and the camera frame the viewer would use",
	Long: `modelinfo loads an OBJ (with optional MTL), GLB or glTF model from a path or
URL and prints its size, geometry counts, bounds, terrain classification and
the computed camera frame.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInfo,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verboseFlag {
			level = "debug"
		}
		return logger.Setup(logger.Options{Level: level, Console: true, Stderr: true})
	},
}

func init() {
	rootCmd.Flags().StringVar(&mtlFlag, "mtl", "", "material library for an OBJ model (default: sibling <name>.mtl)")
	rootCmd.Flags().StringVar(&typeFlag, "type", "", "model type: obj, glb or gltf (default: from extension)")
	rootCmd.PersistentFlags().Float32Var(&fovFlag, "fov", 50, "vertical field of view in degrees used for framing")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log fetches and parsing")
}

func main() {
	defer logger.Sync()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
