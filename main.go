package main

import (
	"os"

	"github.com/pagenoemail/pagenoemail/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
