package messaging

import (
	"testing"

	"scmcore/protocol"
)

func TestEmitterQueuesEnvelope(t *testing.T) {
	o := NewOutbox(10)
	e := NewEmitter(o, "scm.records", "plant-a")

	err := e.Emit(protocol.TypeRecordDeleted, "supplier", &protocol.RecordDeleted{Kind: "supplier", RecordID: "s1", Removed: 1})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	pending := o.ListPending(10)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].Topic != "scm.records.supplier" {
		t.Errorf("topic = %q", pending[0].Topic)
	}
	env, err := protocol.Decode(pending[0].Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != protocol.TypeRecordDeleted || env.Src.Station != "plant-a" {
		t.Errorf("envelope = %+v", env)
	}
	var p protocol.RecordDeleted
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.RecordID != "s1" || p.Removed != 1 {
		t.Errorf("payload = %+v", p)
	}
}
