// Package main implements the wikicap command line interface
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wikicap/wikicap/cmd/wikicap/commands"
	"github.com/wikicap/wikicap/pkg/runtime"
)

func main() {
	env := runtime.DefaultEnvironment()

	// log timestamps must line up with the capture timestamps in the artifacts
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd := commands.BuildRootCmd(env, logger, []*cobra.Command{
		commands.BuildRunCmd(env, logger),
		commands.BuildDevicesCmd(),
		commands.BuildVersionCmd(),
	})

	err := rootCmd.Do(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
