package services

import (
	"encoding/json"
	"log"

	"reelgram/models"
)

// Имена событий live-канала
const (
	EventIdentify        = "identify"
	EventMessageSent     = "message-sent"
	EventMessageReceived = "message-received"
	EventTyping          = "typing"
	EventTypingChanged   = "typing-changed"
	EventPresenceChanged = "presence-changed"
	EventNotification    = "notification"
)

// WSEvent - конверт события live-канала
type WSEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type PresenceChangedPayload struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"` // online | offline
}

type TypingChangedPayload struct {
	UserID   int64 `json:"user_id"`
	IsTyping bool  `json:"is_typing"`
}

// Relay доставляет сообщения, статусы набора текста и присутствие по живым
// соединениям. Доставка всегда best-effort: оффлайн-получатель ничего не
// теряет, сообщения уже лежат в логе переписки.
type Relay struct {
	presence *PresenceRegistry
}

func NewRelay(presence *PresenceRegistry) *Relay {
	return &Relay{presence: presence}
}

// Identify регистрирует соединение пользователя и сообщает всем, что он онлайн
func (r *Relay) Identify(userID int64, conn Conn) {
	r.presence.Register(userID, conn)
	r.presence.Broadcast(envelope(EventPresenceChanged, PresenceChangedPayload{
		UserID: userID,
		Status: "online",
	}))
	relayEventsTotal.WithLabelValues(EventIdentify).Inc()
	log.Printf("User %d is online", userID)
}

// Disconnect снимает запись присутствия по закрывшемуся соединению.
// Если соединение не было identified, запись не найдется - это не ошибка.
func (r *Relay) Disconnect(conn Conn) {
	userID, ok := r.presence.RemoveByConn(conn)
	if !ok {
		return
	}
	r.presence.Broadcast(envelope(EventPresenceChanged, PresenceChangedPayload{
		UserID: userID,
		Status: "offline",
	}))
	log.Printf("User %d went offline", userID)
}

// DeliverMessage пушит сообщение получателю, если тот онлайн.
// Никакого store-and-forward: оффлайн-получатель увидит сообщение
// при следующем чтении диалога.
func (r *Relay) DeliverMessage(receiverID int64, message models.Message) bool {
	delivered := r.presence.Send(receiverID, envelope(EventMessageReceived, message))
	if delivered {
		relayEventsTotal.WithLabelValues(EventMessageReceived).Inc()
	}
	return delivered
}

// Typing пересылает индикатор набора текста получателю. Эфемерное событие:
// оффлайн-получателю молча не доставляется, нигде не сохраняется.
func (r *Relay) Typing(receiverID, senderID int64, isTyping bool) {
	sent := r.presence.Send(receiverID, envelope(EventTypingChanged, TypingChangedPayload{
		UserID:   senderID,
		IsTyping: isTyping,
	}))
	if sent {
		relayEventsTotal.WithLabelValues(EventTypingChanged).Inc()
	}
}

// PushNotification пушит live-уведомление получателю, если тот онлайн
func (r *Relay) PushNotification(userID int64, view models.NotificationView) bool {
	return r.presence.Send(userID, envelope(EventNotification, view))
}

// HandleRaw разбирает входящее событие соединения и диспатчит его.
// Битое событие логируется и пропускается: одно кривое сообщение не должно
// ронять relay для остальных соединений.
func (r *Relay) HandleRaw(conn Conn, raw []byte) {
	var event WSEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("Relay: malformed event dropped: %v", err)
		relayMalformedTotal.Inc()
		return
	}

	switch event.Event {
	case EventIdentify:
		var payload struct {
			UserID int64 `json:"user_id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.UserID == 0 {
			log.Printf("Relay: malformed identify payload dropped")
			relayMalformedTotal.Inc()
			return
		}
		r.Identify(payload.UserID, conn)

	case EventMessageSent:
		var payload struct {
			ReceiverID int64          `json:"receiver_id"`
			Message    models.Message `json:"message"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.ReceiverID == 0 {
			log.Printf("Relay: malformed message-sent payload dropped")
			relayMalformedTotal.Inc()
			return
		}
		r.DeliverMessage(payload.ReceiverID, payload.Message)

	case EventTyping:
		var payload struct {
			ReceiverID int64 `json:"receiver_id"`
			SenderID   int64 `json:"sender_id"`
			IsTyping   bool  `json:"is_typing"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.ReceiverID == 0 {
			log.Printf("Relay: malformed typing payload dropped")
			relayMalformedTotal.Inc()
			return
		}
		r.Typing(payload.ReceiverID, payload.SenderID, payload.IsTyping)

	default:
		log.Printf("Relay: unknown event %q dropped", event.Event)
		relayMalformedTotal.Inc()
	}
}

func envelope(event string, data interface{}) WSEvent {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("Relay: failed to marshal %s payload: %v", event, err)
		raw = []byte("null")
	}
	return WSEvent{Event: event, Data: raw}
}

// GlobalRelay - relay процесса поверх глобального реестра присутствия
var GlobalRelay = NewRelay(GlobalPresence)
