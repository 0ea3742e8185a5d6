/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webhook

import "sync"

// NewMockWebhookNotifier returns mock webhook notifier implementation.
func NewMockWebhookNotifier() *Notifier {
	return &Notifier{}
}

// Notifier is mock implementation of webhook notifier. Messages are recorded by topic.
type Notifier struct {
	NotifyFunc func(topic string, message []byte) error

	mu       sync.Mutex
	messages map[string][][]byte
}

// Notify is mock implementation of webhook notifier Notify().
func (n *Notifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	if n.messages == nil {
		n.messages = map[string][][]byte{}
	}

	n.messages[topic] = append(n.messages[topic], message)
	n.mu.Unlock()

	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	return nil
}

// Messages returns the recorded messages of a topic.
func (n *Notifier) Messages(topic string) [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([][]byte(nil), n.messages[topic]...)
}
