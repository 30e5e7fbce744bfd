package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/stateflow/pkg/stateflow/config"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

func newAlignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "align <event> <size>",
		Short: "Compute the aligned block covering a range of event IDs",
		Long: `Print the registration (event, mask) for the smallest aligned block that
covers size consecutive event IDs starting at event.

Example:
  lcbclock align 0x0501010122000005 5
  lcbclock align 05.01.01.01.22.00.04.00 1024`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := config.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("parse event %q: %w", args[0], err)
			}
			size, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil || size == 0 {
				return fmt.Errorf("size must be a positive integer, got %q", args[1])
			}
			if start+size-1 < start {
				return fmt.Errorf("range of %d ids from %#x overflows", size, start)
			}

			id := event.ID(start)
			mask := event.AlignMask(&id, size)
			if mask == event.MaskGlobal {
				fmt.Fprintf(cmd.OutOrStdout(), "event %s mask %#x block global\n", id, mask)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "event %s mask %#x block %d\n", id, mask, mask+1)
			return nil
		},
	}
}
