package amqp

import (
	"errors"
	"strings"
	"testing"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

func TestEncodeDecode(t *testing.T) {
	msg := &domain.OutboundMessage{UserID: "u1", ChatID: 42, Kind: domain.MessageSubscriptions, Text: "<b>Netflix</b>"}
	body, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if msg.ID == "" || msg.QueuedAt.IsZero() {
		t.Errorf("expected id and queue time filled, got %+v", msg)
	}

	got, err := Decode(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != msg.ID || got.ChatID != 42 || got.Text != msg.Text || !got.QueuedAt.Equal(msg.QueuedAt) {
		t.Errorf("unexpected message: %+v", got)
	}
}

func TestEncode_RequiresChat(t *testing.T) {
	_, err := Encode(&domain.OutboundMessage{Text: "x"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, body := range []string{`not json`, `{"chat_id":0,"text":"x"}`, `{"chat_id":1,"text":""}`} {
		if _, err := Decode([]byte(body)); err == nil || !strings.HasPrefix(err.Error(), "decode message") {
			t.Errorf("Decode(%s): expected error, got %v", body, err)
		}
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        Outcome
	}{
		{"success", nil, false, Ack},
		{"first failure", &domain.ErrExternalService{Service: "telegram", Err: errors.New("502")}, false, Requeue},
		{"second failure", &domain.ErrExternalService{Service: "telegram", Err: errors.New("502")}, true, Drop},
		{"bad message", &domain.ErrValidation{Field: "chat_id", Message: "required"}, false, Drop},
		{"unknown chat", &domain.ErrNotFound{Resource: "chat", ID: "42"}, false, Drop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Settle(tt.err, tt.redelivered); got != tt.want {
				t.Errorf("Settle = %d, want %d", got, tt.want)
			}
		})
	}
}
