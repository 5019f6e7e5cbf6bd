package main

import (
	"context"
	"log"
	"os"

	"produtos-api/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
