package engine

import (
	"context"
	"encoding/json"

	"scmcore/protocol"
	"scmcore/store"
)

func (e *Engine) wireEventHandlers() {
	// Any write invalidates the cached read models and is published downstream
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(RecordSavedEvent)
		e.cache.Invalidate(context.Background(), ev.Kind)
		if e.emitter == nil {
			return
		}
		var record json.RawMessage
		if ev.Record != nil {
			data, err := json.Marshal(ev.Record)
			if err != nil {
				e.lg.Warnf("engine: encode %s %s for outbox: %v", ev.Kind, ev.RecordID, err)
			} else {
				record = data
			}
		}
		e.emit(protocol.TypeRecordSaved, string(ev.Kind), &protocol.RecordSaved{
			Kind:     string(ev.Kind),
			RecordID: ev.RecordID,
			Created:  ev.Created,
			Record:   record,
		})
	}, EventRecordSaved)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(RecordDeletedEvent)
		e.lg.Infof("engine: %s %s deleted (%d rows)", ev.Kind, ev.RecordID, ev.Removed)
		e.cache.Invalidate(context.Background(), ev.Kind)
		if e.emitter == nil {
			return
		}
		e.emit(protocol.TypeRecordDeleted, string(ev.Kind), &protocol.RecordDeleted{
			Kind:     string(ev.Kind),
			RecordID: ev.RecordID,
			Removed:  ev.Removed,
		})
	}, EventRecordDeleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(PredictionLoggedEvent)
		e.lg.Debugf("engine: prediction %s logged (%s, %s)", ev.PredictionID, ev.PredictionType, ev.ModelUsed)
		e.cache.Invalidate(context.Background(), store.KindPrediction)
		if e.emitter == nil {
			return
		}
		e.emit(protocol.TypePredictionLogged, string(store.KindPrediction), &protocol.PredictionLogged{
			PredictionID:   ev.PredictionID,
			PredictionType: ev.PredictionType,
			ModelUsed:      ev.ModelUsed,
		})
	}, EventPredictionLogged)

	e.Events.SubscribeTypes(func(evt Event) {
		e.lg.Infof("engine: messaging: %s", evt.Payload.(ConnectionEvent).Detail)
	}, EventMessagingConnected, EventMessagingDisconnected)
}

func (e *Engine) emit(msgType, kind string, payload any) {
	if err := e.emitter.Emit(msgType, kind, payload); err != nil {
		e.lg.Errorf("engine: queue %s: %v", msgType, err)
	}
}
