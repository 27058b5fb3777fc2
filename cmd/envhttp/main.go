// Command envhttp serves the demo routing table on the native engine.
//
//	envhttp serve -p 3000
//	envhttp routes
//	envhttp version
package main

import (
	"github.com/shashiranjanraj/envhttp/app/routes"
	"github.com/shashiranjanraj/envhttp/pkg/app"
)

func main() {
	app.New(routes.Table()).Run()
}
