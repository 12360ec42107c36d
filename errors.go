package main

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

var (
	errMissingAutonomous = errors.New("autonomous must be set")
	errInvalidLimit      = errors.New("limit must be a positive number")
	errNoSensor          = errors.New("there is no sensor facing none")
)

// ErrResponse renders an error in the standard api format
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, status int, text string) render.Renderer {
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     text,
	}
	if err != nil {
		resp.ErrorText = err.Error()
	}
	return resp
}

func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(err, http.StatusBadRequest, "Invalid request.")
}

func ErrUnauthorized(err error) render.Renderer {
	return newErrResponse(err, http.StatusUnauthorized, "Authentication required.")
}

func ErrPermissionDenied(err error) render.Renderer {
	return newErrResponse(err, http.StatusForbidden, "Permission denied.")
}

func ErrMissing(err error) render.Renderer {
	return newErrResponse(err, http.StatusNotFound, "Resource not found.")
}

func ErrRender(err error) render.Renderer {
	return newErrResponse(err, http.StatusInternalServerError, "Internal server error.")
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
