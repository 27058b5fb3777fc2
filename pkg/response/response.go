// Package response builds gateway.Response values for the common cases.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(status int, body envelope) gateway.Response {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"status":500,"message":"response encoding failed"}`)
	}
	return gateway.Response{
		Status:  status,
		Headers: gateway.NewHeaders("Content-Type", "application/json"),
		Body:    gateway.Bytes(data),
	}
}

// JSON encodes v as-is, without the envelope.
func JSON(status int, v interface{}) gateway.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Error(http.StatusInternalServerError, "response encoding failed")
	}
	return gateway.Response{
		Status:  status,
		Headers: gateway.NewHeaders("Content-Type", "application/json"),
		Body:    gateway.Bytes(data),
	}
}

// Success sends a 200 JSON response with data.
func Success(data interface{}) gateway.Response {
	return write(http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(data interface{}) gateway.Response {
	return write(http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Error sends a JSON error response.
func Error(status int, message string) gateway.Response {
	return write(status, envelope{Status: status, Message: message})
}

// NotFound sends a 404.
func NotFound() gateway.Response {
	return Error(http.StatusNotFound, "Not found")
}

// TooManyRequests sends a 429 with Retry-After in whole seconds.
func TooManyRequests(retryAfterSeconds int) gateway.Response {
	res := Error(http.StatusTooManyRequests, "Too Many Requests")
	if retryAfterSeconds > 0 {
		res.Headers.Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	return res
}

// Text sends a plain text body.
func Text(status int, body string) gateway.Response {
	return gateway.Response{
		Status:  status,
		Headers: gateway.NewHeaders("Content-Type", "text/plain; charset=utf-8"),
		Body:    gateway.Chunks(body),
	}
}

// NoContent sends a 204 with no body.
func NoContent() gateway.Response {
	return gateway.Response{Status: http.StatusNoContent, Headers: gateway.NewHeaders(), Body: gateway.Empty()}
}
