package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Remote calls an external generation service over HTTP. It implements the
// same Engine contract as the in-process optimizer, so the orchestrator does
// not care which one it talks to.
//
// Failed calls are surfaced to the caller as-is; retry policy belongs to the
// calling layer, never here.
type Remote struct {
	client *resty.Client
}

func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Remote{client: client}
}

func (r *Remote) Generate(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post("/generate")
	if err != nil {
		return nil, fmt.Errorf("appel du générateur distant : %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("générateur distant : statut %d : %s", resp.StatusCode(), resp.String())
	}

	return result, nil
}
