package types

import (
	"bytes"
	"encoding/json"
)

// NotificationRequest asks for the notification of one filing at one
// lifecycle status. Option carries the triggering status. Type may be empty,
// in which case the stored filing type is used.
type NotificationRequest struct {
	FilingID int64        `json:"filingId" validate:"required,gt=0"`
	Type     FilingType   `json:"type"`
	Option   FilingStatus `json:"option" validate:"required"`
}

// QueueEnvelope is the body of a message on the filing notification queue.
type QueueEnvelope struct {
	Email *NotificationRequest `json:"email" validate:"required"`
}

// Attachment is one document carried by an outbound email. FileBytes is the
// standard base64 encoding of the document; FileURL is set instead when the
// transport should fetch the document itself. AttachOrder is 1-based and
// serialized as a string to match the delivery transport contract.
type Attachment struct {
	FileName    string `json:"fileName"`
	FileBytes   string `json:"fileBytes"`
	FileURL     string `json:"fileUrl"`
	AttachOrder string `json:"attachOrder"`
}

// MessageContent is the rendered part of an OutboundMessage.
type MessageContent struct {
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments"`
}

// OutboundMessage is the transport-ready email handed to the delivery service.
type OutboundMessage struct {
	Recipients []string       `json:"recipients"`
	RequestBy  string         `json:"requestBy"`
	Content    MessageContent `json:"content"`
}

// MarshalWire encodes m as the delivery transport expects it: field names as
// tagged and HTML left unescaped, so rendered bodies travel as written.
func (m *OutboundMessage) MarshalWire() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
