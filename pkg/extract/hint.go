package extract

import (
	"regexp"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

var (
	currentTaskRe  = regexp.MustCompile(`Current Task: ([^\n]*)`)
	messagesRe     = regexp.MustCompile(`(?s)messages=(\[.*\])`)
	contentFieldRe = regexp.MustCompile(`"content":\s*"([^"]*)"`)
	contentTaskRe  = regexp.MustCompile(`(?s)Task:(.*?)(?:\\n|$)`)
	labeledTaskRe  = regexp.MustCompile(`[Tt]ask:?\s+([^\n]*)`)
	actionVerbRe   = regexp.MustCompile(`^\s*(?:Analyze|Calculate|Process|Generate|Create|Determine|Evaluate|Find|Identify|Extract)\s`)
)

var hintChain = chain{
	{name: "current_task", fn: hintCurrentTask},
	{name: "message_content", fn: hintMessageContent},
	{name: "task_label", fn: hintTaskLabel},
	{name: "action_verb", fn: hintActionVerb},
}

// TaskHint derives the task hint from request text, or calllog.UnknownTask.
func TaskHint(request string) string {
	if hint, _, ok := hintChain.first(request); ok {
		return hint
	}
	return calllog.UnknownTask
}

func hintCurrentTask(text string) (string, bool) {
	m := currentTaskRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return captured(m[1])
}

// hintMessageContent looks for "Task:" inside the first content field of a
// serialized messages list, stopping at an escaped newline.
func hintMessageContent(text string) (string, bool) {
	msgs := messagesRe.FindStringSubmatch(text)
	if msgs == nil {
		return "", false
	}

	content := contentFieldRe.FindStringSubmatch(msgs[1])
	if content == nil {
		return "", false
	}

	m := contentTaskRe.FindStringSubmatch(content[1])
	if m == nil {
		return "", false
	}
	return captured(m[1])
}

func hintTaskLabel(text string) (string, bool) {
	m := labeledTaskRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return captured(m[1])
}

func hintActionVerb(text string) (string, bool) {
	for line := range strings.SplitSeq(text, "\n") {
		if actionVerbRe.MatchString(line) {
			return captured(line)
		}
	}
	return "", false
}
