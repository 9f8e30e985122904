package main

import (
	"os"

	"shoplist-service/cmd/admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
