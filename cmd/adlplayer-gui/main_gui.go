//go:build gui

package main

import (
	"log"
	"os"
)

func main() {
	jukebox, err := NewJukeboxGUI()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	for _, name := range os.Args[1:] {
		if err := jukebox.addFile(name); err != nil {
			log.Printf("Failed to load %s: %v", name, err)
		}
	}

	jukebox.Run()
}
