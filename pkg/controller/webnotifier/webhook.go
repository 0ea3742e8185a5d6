/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetries       = 3
	defaultRetryInterval = 500 * time.Millisecond
)

// HTTPNotifier is a webhook dispatcher capable of notifying multiple subscribers via HTTP.
type HTTPNotifier struct {
	urls          []string
	client        *http.Client
	retries       uint64
	retryInterval time.Duration
}

// HTTPOption configures an HTTPNotifier.
type HTTPOption func(*HTTPNotifier)

// WithRetries sets how often a failed delivery is retried and the pause between attempts.
func WithRetries(retries uint64, interval time.Duration) HTTPOption {
	return func(n *HTTPNotifier) {
		n.retries = retries
		n.retryInterval = interval
	}
}

// WithHTTPClient sets the client used for posting.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(n *HTTPNotifier) {
		n.client = client
	}
}

// NewHTTPNotifier returns a new instance of an HTTPNotifier.
func NewHTTPNotifier(webhookURLs []string, opts ...HTTPOption) *HTTPNotifier {
	n := &HTTPNotifier{
		urls:          webhookURLs,
		client:        http.DefaultClient,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify sends the given message to all of the urls.
// Topic is carried in the message envelope; the webhook URL is used as is.
// A failed delivery is retried; client errors (4xx) are not.
func (n *HTTPNotifier) Notify(topic string, message []byte) error {
	if topic == "" {
		return errors.New(emptyTopicErrMsg)
	}

	if len(message) == 0 {
		return errors.New(emptyMessageErrMsg)
	}

	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return fmt.Errorf(failedToCreateErrMsg, err)
	}

	var allErrs error

	for _, webhookURL := range n.urls {
		destination := webhookURL

		err := backoff.Retry(func() error {
			return n.notifyWH(destination, topicMsg)
		}, backoff.WithMaxRetries(backoff.NewConstantBackOff(n.retryInterval), n.retries))
		allErrs = appendError(allErrs, err)
	}

	return allErrs
}

func (n *HTTPNotifier) notifyWH(destination string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination,
		bytes.NewBuffer(message))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create new http post request for %s: %w", destination, err))
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification to %s: %w", destination, err)
	}

	defer closeResponse(resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent {
		logger.Debugf("notification sent to %s", destination)
		return nil
	}

	err = fmt.Errorf("notification was sent to %s, but %s was received", destination, resp.Status)

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		return backoff.Permanent(err)
	}

	return err
}

func closeResponse(c io.Closer) {
	err := c.Close()
	if err != nil {
		logger.Errorf("Failed to close response body")
	}
}
