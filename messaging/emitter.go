package messaging

import (
	"fmt"

	"scmcore/protocol"
)

// Emitter turns record changes into protocol envelopes on the outbox.
type Emitter struct {
	outbox *Outbox
	prefix string
	src    protocol.Address
}

func NewEmitter(outbox *Outbox, topicPrefix, stationID string) *Emitter {
	return &Emitter{
		outbox: outbox,
		prefix: topicPrefix,
		src:    protocol.Address{Role: protocol.RoleStore, Station: stationID},
	}
}

// RecordTopic returns the topic for changes to one record kind.
func RecordTopic(prefix, kind string) string {
	return prefix + "." + kind
}

// Emit queues payload on the topic for kind.
func (e *Emitter) Emit(msgType, kind string, payload any) error {
	env, err := protocol.NewEnvelope(msgType, e.src, payload)
	if err != nil {
		return fmt.Errorf("build %s envelope: %w", msgType, err)
	}
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	e.outbox.Enqueue(RecordTopic(e.prefix, kind), data)
	return nil
}
