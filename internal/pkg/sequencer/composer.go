package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/do/v2"
)

const defaultComposerTimeout = 10 * time.Second

// ComposerClient submits transactions to an external composer over HTTP.
type ComposerClient struct {
	client *resty.Client
}

func NewComposerClient(baseURL string, timeout time.Duration) *ComposerClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &ComposerClient{client: client}
}

func (c *ComposerClient) Submit(ctx context.Context, tx []byte) (Ack, error) {
	var ack Ack

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(submitRequest{Tx: tx}).
		SetResult(&ack).
		Post("/api/submit")
	if err != nil {
		return Ack{}, fmt.Errorf("failed to submit transaction: %w", err)
	}

	if resp.IsError() {
		return Ack{}, fmt.Errorf("%w: composer answered %s", ErrRejected, resp.Status())
	}

	return ack, nil
}

// NewSubmitter picks the composer when a URL is configured and the local
// sequencer otherwise.
func NewSubmitter(i do.Injector) (Submitter, error) {
	composerURL := do.MustInvokeNamed[string](i, "composer-url")
	if composerURL != "" {
		return NewComposerClient(composerURL, defaultComposerTimeout), nil
	}

	localSequencer, err := do.Invoke[*LocalSequencer](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create local sequencer: %w", err)
	}

	return localSequencer, nil
}
