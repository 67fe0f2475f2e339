package views

import (
	"strings"

	"github.com/navvylabs/navvy/internal/ui/services"
)

// RenderChat renders the message history.
func RenderChat(s State, renderer services.MarkdownRenderer) string {
	if len(s.Messages) == 0 && s.Streaming == "" {
		return "No messages yet. Describe a task to start."
	}
	return s.Viewport.View()
}

// FormatChatContent formats the transcript for the viewport. Assistant
// prose is rendered as markdown; everything else stays monospace so tool
// output lines up.
func FormatChatContent(messages []Message, streaming string, width int, renderer services.MarkdownRenderer) string {
	var lines []string
	for _, msg := range messages {
		lines = append(lines, formatMessage(msg, width, renderer), "")
	}
	if streaming != "" {
		lines = append(lines, formatMessage(Message{Role: "assistant", Content: streaming}, width, renderer))
	}
	return strings.Join(lines, "\n")
}

func formatMessage(msg Message, width int, renderer services.MarkdownRenderer) string {
	switch msg.Role {
	case "user":
		return UserMessageStyle.Render("You: " + msg.Content)
	case "tool":
		return ToolMessageStyle.Render(msg.Content)
	case "system":
		return SystemMessageStyle.Render(msg.Content)
	case "error":
		return ErrorMessageStyle.Render(msg.Content)
	default:
		rendered, err := services.RenderMarkdown(msg.Content, width, renderer)
		if err != nil {
			// Fallback to plain text
			return AssistantMessageStyle.Render(msg.Content)
		}
		return AssistantMessageStyle.Render(rendered)
	}
}
