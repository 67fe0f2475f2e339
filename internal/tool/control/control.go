// Package control holds the two conversation-steering tools. Their
// handlers produce no content of their own; the engine keys its terminal
// transitions on the tool names and the operator-facing content comes
// from the call arguments.
package control

import (
	"context"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

// Names the engine matches against.
const (
	AskFollowupQuestion = "ask_followup_question"
	AttemptCompletion   = "attempt_completion"
)

// QuestionArgs is the decoded shape of an ask_followup_question call.
type QuestionArgs struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// CompletionArgs is the decoded shape of an attempt_completion call.
type CompletionArgs struct {
	Result  string `json:"result"`
	Command string `json:"command"`
}

// Descriptors returns the control tool set.
func Descriptors() []*tool.Descriptor {
	return []*tool.Descriptor{
		{
			Name: AskFollowupQuestion,
			Description: "Ask the user a question to gather additional information needed to " +
				"complete the task. This tool should be used when you encounter ambiguities, need " +
				"clarification, or require more details to proceed effectively. Use it judiciously " +
				"to maintain a balance between gathering necessary information and avoiding " +
				"excessive back-and-forth.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"question": {
						Type: tool.TypeString,
						Description: "The question to ask the user. This should be a clear, specific " +
							"question that addresses the information you need.",
					},
					"options": {
						Type:  tool.TypeArray,
						Items: &tool.Schema{Type: tool.TypeString},
						Description: "An array of 2-5 options for the user to choose from. Each option " +
							"should be a string describing a possible answer. You may not always need to " +
							"provide options, but it may be helpful in many cases where it can save the " +
							"user from having to type out a response manually.",
					},
				},
				Required: []string{"question"},
			},
			Risk:    permission.RiskSafe,
			Handler: tool.HandlerFunc(noContent),
		},
		{
			Name: AttemptCompletion,
			Description: "Present the result of your work to the user once the task is complete. " +
				"Formulate the result in a way that is final and does not require further input " +
				"from the user. Optionally provide a CLI command that demonstrates the result.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"result": {
						Type: tool.TypeString,
						Description: "The result of the task. Formulate this result in a way that is " +
							"final and does not require further input from the user. Don't end your " +
							"result with questions or offers for further assistance.",
					},
					"command": {
						Type: tool.TypeString,
						Description: "A CLI command to execute to show a live demo of the result to " +
							"the user. Optional.",
					},
				},
				Required: []string{"result"},
			},
			Risk:    permission.RiskSafe,
			Handler: tool.HandlerFunc(noContent),
		},
	}
}

func noContent(context.Context, tool.Invocation, map[string]any) (tool.Result, error) {
	return tool.Text(""), nil
}
