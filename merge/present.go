package merge

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultChatBudget is the character budget for a chat rendering.
const DefaultChatBudget = 4000

// truncationMarker is appended when a rendering exceeds the budget.
const truncationMarker = "\n… (truncated)"

// ChatAttachment is a secondary block attached to a chat message.
type ChatAttachment struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// ChatMessage is the chat-surface projection of a merged result.
type ChatMessage struct {
	Text        string           `json:"text"`
	Attachments []ChatAttachment `json:"attachments,omitempty"`
}

// ToChatMessage projects a merged result into a chat-message shape: the
// rendered payload truncated to budget characters, a metadata footer, and a
// warning attachment when any backend failed. Pure transform. A budget of 0
// or less falls back to DefaultChatBudget.
func ToChatMessage(m MergedResult, budget int) ChatMessage {
	if budget <= 0 {
		budget = DefaultChatBudget
	}

	body := renderBody(m)
	// The budget counts characters, not bytes; slicing bytes could split a
	// multi-byte rune before the marker.
	if utf8.RuneCountInString(body) > budget {
		body = string([]rune(body)[:budget]) + truncationMarker
	}

	msg := ChatMessage{
		Text: body + "\n\n" + footer(m.Meta),
	}

	if m.Meta.FailedCount > 0 {
		msg.Attachments = append(msg.Attachments, ChatAttachment{
			Title: "Some backends failed",
			Text:  fmt.Sprintf("%d of %d results did not complete successfully.", m.Meta.FailedCount, m.Meta.ResultCount),
			Color: "warning",
		})
	}

	return msg
}

// renderBody stringifies the merged payload.
func renderBody(m MergedResult) string {
	if m.Output != nil {
		return stringify(m.Output)
	}
	var parts []string
	for _, item := range m.Items {
		tag := item.Source
		if !item.Success {
			tag += " (failed)"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", tag, stringify(item.Output)))
	}
	return strings.Join(parts, "\n")
}

// stringify renders a value for chat; strings pass through, everything else
// is JSON-encoded.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}

// footer summarizes the merge accounting in one line.
func footer(meta Meta) string {
	return fmt.Sprintf("%d/%d succeeded · %s · sources: %s",
		meta.SuccessCount, meta.ResultCount, meta.TotalDuration, strings.Join(meta.Sources, ", "))
}

// APIError surfaces one failed result in an API envelope.
type APIError struct {
	Source string `json:"source"`
	TaskID string `json:"taskId,omitempty"`
	Error  string `json:"error"`
}

// APIResponse is the generic API envelope projection.
type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Meta    Meta       `json:"meta"`
	Errors  []APIError `json:"errors,omitempty"`
}

// ToAPIResponse projects a merged result into a generic API envelope. Success
// means no considered result failed. Pure transform.
func ToAPIResponse(m MergedResult) APIResponse {
	resp := APIResponse{
		Success: m.Meta.FailedCount == 0,
		Meta:    m.Meta,
	}

	if m.Output != nil {
		resp.Data = m.Output
	} else {
		resp.Data = m.Items
	}

	for _, item := range m.Items {
		if !item.Success {
			resp.Errors = append(resp.Errors, APIError{
				Source: item.Source,
				TaskID: item.TaskID,
				Error:  item.Error,
			})
		}
	}

	return resp
}
