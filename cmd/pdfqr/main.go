package main

import "github.com/MeKo-Tech/pdfqr/cmd/pdfqr/cmd"

func main() {
	cmd.Execute()
}
