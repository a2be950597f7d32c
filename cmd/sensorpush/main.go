package main

import (
	"os"

	"sensorpush/internal/config"
)

func main() {
	Execute(&Writer{Out: os.Stdout, Err: os.Stderr}, config.Load())
}
