package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <generate|extract> [flags]")
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = RunGenerate(os.Args[2:])
	case "extract":
		err = RunExtract(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
