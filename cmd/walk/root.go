package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errWalkFailed signals a completed walk that produced a Failure. The result
// has already been printed, so main only sets the exit status.
var errWalkFailed = errors.New("walk failed")

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "walk",
		Short:         "Single-shot HTTP(S) reachability probe",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log walk events to stderr")

	root.AddCommand(newRunCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newPreflightCmd())
	return root
}

func cliLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
