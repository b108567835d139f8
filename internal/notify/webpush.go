package notify

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/lovechedule/lovechedule/internal/model"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Transport delivers one notification to one subscription. Every value
// in data must already be a string; booleans go over the wire as
// "true"/"false".
type Transport interface {
	Send(ctx context.Context, sub *model.PushSubscription, title, body string, data map[string]string) error
}

type payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// WebPushTransport sends notifications over the Web Push protocol with
// VAPID authentication.
type WebPushTransport struct {
	publicKey  string
	privateKey string
	subscriber string
}

func NewWebPushTransport(publicKey, privateKey string) *WebPushTransport {
	return &WebPushTransport{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: "mailto:noreply@lovechedule.app",
	}
}

// VAPIDPublicKey returns the key clients need to subscribe.
func (t *WebPushTransport) VAPIDPublicKey() string {
	return t.publicKey
}

func (t *WebPushTransport) Send(ctx context.Context, sub *model.PushSubscription, title, body string, data map[string]string) error {
	raw, err := json.Marshal(payload{Title: title, Body: body, Data: data})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, raw, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		Subscriber:      t.subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
