// Veria CLI - compliance screening from the command line
//
// Screen a single input:
//
//	veria screen vitalik.eth
//
// Screen a file of inputs, one per line, at a bounded rate:
//
//	veria screen --file addresses.txt --rate 5
//
// The API key is taken from --api-key or the VERIA_API_KEY
// environment variable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "veria"
	appVersion = "1.0.0"
)

// exitBlocked is returned when any screened input should be blocked,
// so shell pipelines can gate on the decision.
const exitBlocked = 2

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Screen blockchain addresses and identifiers for compliance risk",
	Long: `Veria screens blockchain addresses, ENS names, transaction hashes and
other identifiers against sanctions, PEP and watchlist data.

Results carry a risk score and level plus per-list hit details. The
exit code is 0 for clean results, 2 when any result should be blocked,
and 1 on errors.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
