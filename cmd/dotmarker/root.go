package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ironsheep/dotmarker/internal/monitoring"
)

// configEnv names the environment variable holding the default
// recognizer configuration path.
const configEnv = "DOTMARKER_CONFIG"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dotmarker",
		Short: "Random-dot fiducial marker generator and detector",
		Long: `dotmarker generates random-dot markers, renders them for printing and
identifies them in captured images.

Environment variables (also read from a .env file):
  DOTMARKER_LOG_LEVEL=debug    Enable debug logging
  DOTMARKER_CONFIG=path.json   Default recognizer configuration`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is not an error.
			_ = godotenv.Load()
			monitoring.ConfigureFromEnv()
			monitoring.Debugf("dotmarker %s (built %s, commit %s)", Version, BuildTime, GitCommit)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("dotmarker {{.Version}}\n  Build time: %s\n  Git commit: %s\n", BuildTime, GitCommit))

	root.AddCommand(
		newGenerateCmd(),
		newVerifyCmd(),
		newRenderCmd(),
		newDetectCmd(),
		newServeCmd(),
	)
	return root
}

// configPath returns flagValue, or the DOTMARKER_CONFIG path when the flag
// is empty.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(configEnv)
}
