// Package app provides the envhttp application runner.
//
// # Minimal usage
//
//	package main
//
//	import (
//	    "github.com/shashiranjanraj/envhttp/pkg/app"
//	    "github.com/shashiranjanraj/envhttp/pkg/gateway"
//	)
//
//	func main() {
//	    hello := gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
//	        return gateway.Response{
//	            Status:  200,
//	            Headers: gateway.NewHeaders("Content-Type", "text/plain"),
//	            Body:    gateway.Chunks("hello"),
//	        }, nil
//	    })
//	    app.New(hello).Run()
//	}
//
// Then:
//
//	go build -o myapp . && ./myapp serve -p 3000
//	./myapp routes
//	./myapp version
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// ─── Application Builder ──────────────────────────────────────────────────────

// Application holds the dispatch target and whatever wraps it. Build one
// with New, attach middleware and engine hooks, then call Run.
type Application struct {
	target      any
	middlewares []gateway.Middleware
	configure   []func(*engine.Server)
}

// New creates an Application serving target: a gateway.App, a
// bridge.PathMap, a map[string]gateway.App or a *urlmap.URLMap.
func New(target any) *Application {
	return &Application{target: target}
}

// Use appends middleware applied inside the default stack, in order.
func (a *Application) Use(mws ...gateway.Middleware) *Application {
	a.middlewares = append(a.middlewares, mws...)
	return a
}

// Configure registers a hook that runs with the engine once the target is
// mounted, e.g. to Handle extra net/http endpoints.
func (a *Application) Configure(fn func(*engine.Server)) *Application {
	a.configure = append(a.configure, fn)
	return a
}

// Command builds the cobra command tree for this application.
func (a *Application) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "envhttp",
		Short:         "Serve gateway applications on the native engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(a.serveCmd(), a.routesCmd(), versionCmd())
	return root
}

// Execute runs the command line args, writing command output to out.
func (a *Application) Execute(args []string, out io.Writer) error {
	root := a.Command()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.Execute()
}

// Run reads os.Args and dispatches to the matching command. With no
// command it serves.
func (a *Application) Run() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}
	if err := a.Execute(args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
