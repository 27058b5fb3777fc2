package gateway

// Response is the three-part result of an application call.
type Response struct {
	Status  int
	Headers *Headers
	Body    Body
}

// App is anything that can be invoked with an Env.
//
// An error means the application failed before producing a response; it is
// propagated unchanged to the server.
type App interface {
	Call(env *Env) (Response, error)
}

// AppFunc adapts an ordinary function to App.
type AppFunc func(env *Env) (Response, error)

func (f AppFunc) Call(env *Env) (Response, error) { return f(env) }

// Middleware wraps an App.
type Middleware func(App) App

// Chain wraps app so that the first middleware is the outermost.
func Chain(app App, middlewares ...Middleware) App {
	wrapped := app
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// BodyAllowed reports whether a response with status may carry an entity
// body (false for 1xx, 204 and 304).
func BodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == 204, status == 304:
		return false
	}
	return true
}
