package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HttpClientInterface interface {
	Get(url string, headers map[string]string) ([]byte, error)
	Post(url string, message []byte, headers map[string]string) ([]byte, error)
}

type HttpClient struct {
	Timeout time.Duration
}

func (h *HttpClient) Post(url string, message []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequest("POST", url, bytes.NewReader(message))
	if err != nil {
		return nil, err
	}

	return h.execute(req, headers)
}

func (h *HttpClient) Get(url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	return h.execute(req, headers)
}

func (h *HttpClient) execute(req *http.Request, headers map[string]string) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	timeout := h.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
	}

	res, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, errors.New(fmt.Sprintf("Request [%s] failed with error code: %d", req.URL.String(), res.StatusCode))
	}

	return io.ReadAll(res.Body)
}
