package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowResponse struct {
	status int
	body   string
	err    error
}

func TestServe_DrainsInFlightRequests(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Listener = listener

	started := make(chan struct{})
	release := make(chan struct{})
	app.GET("/slow", func(c echo.Context) error {
		close(started)
		<-release
		return c.String(http.StatusOK, "done")
	})

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, app, &http.Server{ReadHeaderTimeout: time.Second}, 5*time.Second, logger)
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	url := "http://" + listener.Addr().String() + "/slow"
	responses := make(chan slowResponse, 1)
	go func() {
		resp, err := client.Get(url)
		if err != nil {
			responses <- slowResponse{err: err}
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		responses <- slowResponse{status: resp.StatusCode, body: string(body)}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	cancel()

	select {
	case err := <-served:
		t.Fatalf("serve returned while a request was in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	res := <-responses
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "done", res.body)

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after shutdown")
	}

	_, err = client.Get(url)
	assert.Error(t, err)
}

func TestServe_ReturnsStartupError(t *testing.T) {
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	logger, _ := test.NewNullLogger()

	err := serve(context.Background(), app, &http.Server{Addr: "127.0.0.1:-1"}, time.Second, logger)
	assert.Error(t, err)
}
