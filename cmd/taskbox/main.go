package main

import (
	"github.com/taskbox/taskbox/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	err = application.Run()
	if err != nil {
		panic(err)
	}
}
