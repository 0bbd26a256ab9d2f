package main

import (
	"log"

	"github.com/spigell/job-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
