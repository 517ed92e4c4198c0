// Kestrel - Alert generation and scoring for annuity books of business.

package main

import "github.com/annuityworks/kestrel/internal/cli"

func main() {
	cli.Execute()
}
