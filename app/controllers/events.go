package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/response"
	"github.com/shashiranjanraj/envhttp/pkg/sse"
)

const (
	maxTicks     = 100
	minInterval  = 10 * time.Millisecond
	defaultTicks = 5
)

// Events streams n "tick" events, one per interval:
//
//	GET /events?n=3&interval=250ms
var Events = gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
	q, err := url.ParseQuery(env.String(gateway.QueryString))
	if err != nil {
		return response.Error(http.StatusBadRequest, "bad query string"), nil
	}

	n := defaultTicks
	if raw := q.Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTicks {
			return response.Error(http.StatusBadRequest, "n must be between 1 and 100"), nil
		}
	}

	interval := time.Second
	if raw := q.Get("interval"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil || interval < minInterval {
			return response.Error(http.StatusBadRequest, "interval must be a duration of at least 10ms"), nil
		}
	}

	stream := sse.New(func(ctx context.Context, s *sse.Sender) error {
		t := time.NewTicker(interval)
		defer t.Stop()
		for i := 1; i <= n; i++ {
			if err := s.SendEvent(sse.Event{ID: strconv.Itoa(i), Event: "tick", Data: strconv.Itoa(i)}); err != nil {
				return err
			}
			if i == n {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
		return nil
	})
	return sse.Response(stream), nil
})
