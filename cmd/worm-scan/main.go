package main

import (
	"log"
	"os"

	"github.com/AlexTiTanium/worm-scan/pkg"
)

var (
	version = "0.1.0"
)

func main() {
	app := pkg.NewApp(version)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}
