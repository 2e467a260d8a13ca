package relstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/logger"
	redisc "github.com/framewell/tracker/common/redis"
)

// Bus propagates invalidations between processes over redis pub/sub, so a
// mutation in one dashboard instance reaches every instance caching the same
// key. Messages carry the originating instance id; a process ignores its own.
type Bus struct {
	client     *redisc.Client
	channel    string
	instanceID string
	log        *logger.Logger
}

// invalidationMsg is the wire payload on the bus channel
type invalidationMsg struct {
	InstanceID string `json:"instance_id"`
	Kind       string `json:"kind"`
	OwnerID    string `json:"owner_id"`
}

// NewBus creates an invalidation bus on the given channel prefix
func NewBus(client *redisc.Client, channelPrefix string, log *logger.Logger) *Bus {
	return &Bus{
		client:     client,
		channel:    channelPrefix,
		instanceID: uuid.NewString(),
		log:        log,
	}
}

// Publish broadcasts one invalidation. Best-effort: a failed publish is
// logged, never surfaced, since the local cache is already stale-marked.
func (b *Bus) Publish(key Key) {
	msg := invalidationMsg{
		InstanceID: b.instanceID,
		Kind:       string(key.Kind),
		OwnerID:    key.OwnerID.String(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("marshal invalidation", "key", key.String(), "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.client.PublishEvent(ctx, b.channel, string(payload)); err != nil {
			b.log.Warn("publish invalidation failed", "key", key.String(), "error", err)
		}
	}()
}

// Start subscribes and applies remote invalidations to store until ctx is
// cancelled. Malformed payloads are logged and skipped.
func (b *Bus) Start(ctx context.Context, store *Store) error {
	pubsub := b.client.GetUnderlying().Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for confirmation that the subscription is live
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	b.log.Info("invalidation bus subscribed", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("invalidation bus stopping")
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(store, msg.Payload)
		}
	}
}

func (b *Bus) handle(store *Store, payload string) {
	var msg invalidationMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.log.Warn("invalid invalidation payload", "error", err)
		return
	}

	if msg.InstanceID == b.instanceID {
		return
	}

	kind := Kind(msg.Kind)
	ownerID, err := uuid.Parse(msg.OwnerID)
	if err != nil || !kind.Valid() {
		b.log.Warn("invalid invalidation message", "kind", msg.Kind, "owner_id", msg.OwnerID)
		return
	}

	// Remote origin: mark stale locally without echoing back onto the bus
	store.invalidate(Key{Kind: kind, OwnerID: ownerID}, false)
}
