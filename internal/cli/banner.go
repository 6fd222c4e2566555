package cli

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	brightRed = color.New(color.FgRed, color.Bold).SprintFunc()
	dimYellow = color.New(color.FgYellow).SprintFunc()
)

// displayBanner prints the tool name and version above command output.
func displayBanner(version string) {
	banner := `
  __  __
 |  \/  | ___  _ __   _____   __
 | |\/| |/ _ \| '_ \ / _ \ \ / /
 | |  | | (_) | | | |  __/\ V /
 |_|  |_|\___/|_| |_|\___| \_/
`
	fmt.Println(boldGreen(banner))
	fmt.Println(boldCyan(fmt.Sprintf("monevctl %s", version)))
}
