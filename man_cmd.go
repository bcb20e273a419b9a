package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		manPage = manPage.WithSection("Hotkeys", hotkeySection)
		_, err = fmt.Fprint(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
		return err //nolint:wrapcheck
	},
}

const hotkeySection = `alt+s speaks the selection or the active region.
alt+p pauses and resumes. escape stops and clears the queue.
alt+] and alt+[ change the speed. alt+n and alt+b move between lines.
alt+m selects or drops a screen region, alt+r toggles reading it whenever it changes.
alt+l switches between line and continuous reading, alt+c toggles the code filter.
alt+q quits. The speak and pause keys can be changed in settings.json.`
