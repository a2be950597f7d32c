package main

import (
	"io"

	"github.com/spf13/cobra"
)

func NewCmdSensors(w io.Writer, rf *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "sensors",
		Short:   "List the sensors of the account",
		Aliases: []string{"sensor"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rf.newClient(1)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			sensors, err := c.Sensors(cmd.Context())
			if err != nil {
				return err
			}
			if rf.Output == JSONOutput {
				return printJSON(w, sensors)
			}
			return printSensors(w, sensors)
		},
	}
}

func NewCmdGateways(w io.Writer, rf *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "gateways",
		Short:   "List the gateways of the account",
		Aliases: []string{"gateway"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rf.newClient(1)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			gateways, err := c.Gateways(cmd.Context())
			if err != nil {
				return err
			}
			if rf.Output == JSONOutput {
				return printJSON(w, gateways)
			}
			return printGateways(w, gateways)
		},
	}
}
