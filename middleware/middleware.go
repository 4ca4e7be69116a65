// Package middleware wraps the handling of frames received from controllers.
//
// A session builds its chain once and runs every controller frame through
// it before the frame is decoded:
//
//	Chain(A, B, C)(handler) → A(B(C(handler)))
//	Execution order: A.before → B.before → C.before → handler → C.after → B.after → A.after
package middleware

import "context"

// Request is one frame received from a controller.
type Request struct {
	ControllerID uint16
	Payload      []byte
}

// HandlerFunc handles a controller frame and returns the frame to forward
// to the game.
type HandlerFunc func(ctx context.Context, req *Request) ([]byte, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one; the first wraps all the others.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
