package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "spheremap: %v\n", err)
		os.Exit(1)
	}
}
