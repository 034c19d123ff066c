package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(api, token string) *resty.Client {
	c := resty.New().
		SetBaseURL(api).
		// POST /api/match waits for the oracle
		SetTimeout(60*time.Second).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

// emit writes the response body to out, or returns it as an error when status is not want.
func emit(resp *resty.Response, err error, out io.Writer, want ...int) error {
	if err != nil {
		return err
	}
	if len(want) == 0 {
		want = []int{http.StatusOK}
	}
	for _, code := range want {
		if resp.StatusCode() == code {
			if len(resp.Body()) > 0 {
				_, _ = fmt.Fprintln(out, string(resp.Body()))
			}
			return nil
		}
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
}
