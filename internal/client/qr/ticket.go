package qr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Ticket is the payload of a QR code the client issues after registering
// for an event.
type Ticket struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	EventName string `json:"eventName" validate:"required"`
}

func EncodeTicket(t Ticket) ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTicket parses a ticket payload. Older tickets carry the event name
// under "event".
func DecodeTicket(b []byte) (Ticket, error) {
	var raw struct {
		Ticket
		Event string `json:"event"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket: %w", err)
	}
	t := raw.Ticket
	if t.EventName == "" {
		t.EventName = raw.Event
	}
	return t, nil
}

// RenderPNG encodes payload as a size x size PNG image.
func RenderPNG(payload string, size int) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, size)
}

// RenderTerminal draws payload with Unicode half blocks, two modules per
// character cell. With invert set, dark modules are drawn as blanks, which
// scans better on dark terminal backgrounds.
func RenderTerminal(payload string, invert bool) (string, error) {
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}
	bm := q.Bitmap()

	var sb strings.Builder
	for y := 0; y < len(bm); y += 2 {
		for x := range bm[y] {
			top := bm[y][x] != invert
			bottom := false
			if y+1 < len(bm) {
				bottom = bm[y+1][x] != invert
			}
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
