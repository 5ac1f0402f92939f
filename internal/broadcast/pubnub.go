package broadcast

import (
	"context"

	pubnub "github.com/pubnub/go/v7"

	"qms/shift-service/internal/events"
)

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

// PubNub relays events to hosted PubNub channels of the same name.
type PubNub struct {
	publish func(channel string, message any) error
}

func NewPubNub(cfg PubNubConfig) *PubNub {
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey
	pn := pubnub.NewPubNub(pnConfig)

	return &PubNub{publish: func(channel string, message any) error {
		_, _, err := pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	}}
}

func (p *PubNub) Name() string { return "pubnub" }

func (p *PubNub) Publish(_ context.Context, envelope events.Envelope) error {
	return p.publish(envelope.Channel, map[string]any{
		"event": envelope.Event,
		"data":  envelope.Data,
	})
}
