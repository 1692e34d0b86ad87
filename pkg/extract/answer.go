package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	finalAnswerRe = regexp.MustCompile(`(?s)Final Answer:(.*?)(?:\n\n|$)`)
	actionRe      = regexp.MustCompile(`Action:([^\n]*)`)
	thoughtRe     = regexp.MustCompile(`Thought:([^\n]*)`)
	jsonPayloadRe = regexp.MustCompile(`(?s)(\{.*\})`)

	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\"`, `"`)
)

// Answer holds the ReAct-style fields found in a response.
type Answer struct {
	Thought     string
	Action      string
	FinalAnswer string

	// FromJSON is set when the fields came from the decoded message content
	// rather than the raw response text.
	FromJSON bool
}

func (a Answer) empty() bool {
	return a.Thought == "" && a.Action == "" && a.FinalAnswer == ""
}

// Answers searches response text for "Thought:", "Action:" and
// "Final Answer:" labels. When none is present it decodes the JSON payload in
// the response, unescapes choices[0].message.content and searches that. The
// returned error is non-nil only when that payload fails to decode.
func Answers(response string) (Answer, error) {
	ans := searchLabels(response)
	if !ans.empty() {
		return ans, nil
	}

	m := jsonPayloadRe.FindStringSubmatch(response)
	if m == nil {
		return ans, nil
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return ans, fmt.Errorf("decoding response payload: %w", err)
	}

	content := payload.content()
	if content == "" {
		return ans, nil
	}

	ans = searchLabels(unescaper.Replace(content))
	ans.FromJSON = !ans.empty()
	return ans, nil
}

func searchLabels(text string) Answer {
	var a Answer
	if m := finalAnswerRe.FindStringSubmatch(text); m != nil {
		a.FinalAnswer = strings.TrimSpace(m[1])
	}
	if m := actionRe.FindStringSubmatch(text); m != nil {
		a.Action = strings.TrimSpace(m[1])
	}
	if m := thoughtRe.FindStringSubmatch(text); m != nil {
		a.Thought = strings.TrimSpace(m[1])
	}
	return a
}

// completionPayload is the slice of an OpenAI-style chat completion that the
// fallback needs.
type completionPayload struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p completionPayload) content() string {
	if len(p.Choices) == 0 {
		return ""
	}
	s, _ := p.Choices[0].Message.Content.(string)
	return s
}
