// Command edictl ingests, checks and inspects EDI documents from the shell.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
