package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/domain"
)

// Inbound event types.
const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventRequestSummary = "request_summary"
	EventPing           = "ping"
)

// Outbound event types.
const (
	EventUsersUpdated   = "users_updated"
	EventRecentMessages = "recent_messages"
	EventNewMessage     = "new_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUserTyping     = "user_typing"
	EventChatSummary    = "chat_summary"
	EventError          = "error"
	EventPong           = "pong"
)

// Error codes carried by error frames.
const (
	CodeInvalidName        = "invalid_name"
	CodeAlreadyJoined      = "already_joined"
	CodeEmptyMessage       = "empty_message"
	CodeMessageTooLong     = "message_too_long"
	CodeRateLimited        = "rate_limited"
	CodeBadPayload         = "bad_payload"
	CodeUnknownEvent       = "unknown_event"
	CodeNotJoined          = "not_joined"
	CodeSummaryUnavailable = "summary_unavailable"
	CodeInternal           = "internal"
)

var (
	errBadPayload   = errors.New("bad payload")
	errUnknownEvent = errors.New("unknown event")
)

type inbound interface{ eventType() string }

type joinEvent struct {
	Username          string `json:"username"`
	PreferredLanguage string `json:"preferredLanguage"`
}

type sendMessageEvent struct {
	Text string `json:"text"`
}

type typingEvent struct{ typing bool }

type summaryRequestEvent struct{}

type pingEvent struct{}

func (joinEvent) eventType() string           { return EventJoin }
func (sendMessageEvent) eventType() string    { return EventSendMessage }
func (summaryRequestEvent) eventType() string { return EventRequestSummary }
func (pingEvent) eventType() string           { return EventPing }
func (e typingEvent) eventType() string {
	if e.typing {
		return EventTypingStart
	}
	return EventTypingStop
}

// decodeInbound maps a text frame onto the closed set of client events.
func decodeInbound(data []byte) (inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}

	switch env.Type {
	case EventJoin:
		var e joinEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadPayload, err)
		}
		return e, nil
	case EventSendMessage:
		var e sendMessageEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadPayload, err)
		}
		return e, nil
	case EventTypingStart:
		return typingEvent{typing: true}, nil
	case EventTypingStop:
		return typingEvent{typing: false}, nil
	case EventRequestSummary:
		return summaryRequestEvent{}, nil
	case EventPing:
		return pingEvent{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEvent, env.Type)
	}
}

type usersUpdated struct {
	Type  string              `json:"type"`
	Users []domain.Connection `json:"users"`
}

type recentMessages struct {
	Type     string           `json:"type"`
	Messages []domain.Message `json:"messages"`
}

type newMessage struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// memberNotice is used for both user_joined and user_left.
type memberNotice struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type userTyping struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type chatSummary struct {
	Type         string    `json:"type"`
	Summary      string    `json:"summary"`
	MessageCount uint64    `json:"messageCount"`
	Timestamp    time.Time `json:"timestamp"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type pong struct {
	Type string `json:"type"`
}

func joinedNotice(name string) memberNotice {
	return memberNotice{Type: EventUserJoined, Username: name, Message: name + " joined the chat"}
}

func leftNotice(name string) memberNotice {
	return memberNotice{Type: EventUserLeft, Username: name, Message: name + " left the chat"}
}

func summaryFrame(res app.SummaryResult) chatSummary {
	return chatSummary{Type: EventChatSummary, Summary: res.Summary, MessageCount: res.MessageCount, Timestamp: res.Timestamp}
}

// codeFor maps a sentinel error to its wire code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		return CodeInvalidName
	case errors.Is(err, app.ErrDuplicateConnection):
		return CodeAlreadyJoined
	case errors.Is(err, domain.ErrEmptyMessage):
		return CodeEmptyMessage
	case errors.Is(err, domain.ErrMessageTooLong):
		return CodeMessageTooLong
	case errors.Is(err, app.ErrUnknownSender):
		return CodeNotJoined
	case errors.Is(err, errBadPayload):
		return CodeBadPayload
	case errors.Is(err, errUnknownEvent):
		return CodeUnknownEvent
	default:
		return CodeInternal
	}
}
