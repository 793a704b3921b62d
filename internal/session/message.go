// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"encoding/json"
	"fmt"
)

// MessageType names a message exchanged with the editing surface.
type MessageType string

// Inbound message types.
const (
	TypeSave          MessageType = "save"
	TypeUpdateContent MessageType = "updateContent"
	TypeReady         MessageType = "ready"
)

// Outbound message types.
const (
	TypeSaved  MessageType = "saved"
	TypeUpdate MessageType = "update"
)

// Inbound is a message from the editing surface. Content is the editor's
// HTML for save and updateContent.
type Inbound struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`
}

// Saved answers a save request. Content carries the cleaned Markdown on
// success; Error the user-facing message on failure.
type Saved struct {
	Type    MessageType `json:"type"`
	Success bool        `json:"success"`
	Content string      `json:"content,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Update replaces the editing surface's content. Error marks Content as an
// error view rather than the document.
type Update struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
	Error   bool        `json:"error,omitempty"`
}

// DecodeInbound parses one inbound message.
func DecodeInbound(data []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return Inbound{}, fmt.Errorf("decoding message: %w", err)
	}
	switch msg.Type {
	case TypeSave, TypeUpdateContent, TypeReady:
		return msg, nil
	default:
		return Inbound{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}
