package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type OrdersPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewOrdersPubSub(rdb *redis.Client) *OrdersPubSub {
	return &OrdersPubSub{
		rdb:     rdb,
		channel: ChannelOrdersChanged(),
	}
}

type orderChangedMsg struct {
	Type   string `json:"type"`
	PNR    string `json:"pnr"`
	Status string `json:"status"`
	TsUnix int64  `json:"ts_unix"`
}

func (p *OrdersPubSub) PublishOrderChanged(ctx context.Context, pnr, status string) error {
	msg := orderChangedMsg{
		Type:   "order_changed",
		PNR:    pnr,
		Status: status,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *OrdersPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, pnr, status string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev orderChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.PNR != "" {
				handler(ctx, ev.PNR, ev.Status)
			}
		}
	}
}
