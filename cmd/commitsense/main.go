package main

import (
	"os"

	"github.com/foxycorps/commitsense/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
