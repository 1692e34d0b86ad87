package extract

import (
	"regexp"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

var modelChain = chain{
	{name: "double_quoted", fn: submatch(regexp.MustCompile(`model="([^"]+)"`))},
	{name: "single_quoted", fn: submatch(regexp.MustCompile(`model='([^']+)'`))},
	{name: "bare", fn: submatch(regexp.MustCompile(`model=([a-zA-Z0-9\-\.]+)`))},
	{name: "json_key", fn: submatch(regexp.MustCompile(`"model":\s*"([^"]+)"`))},
}

// Model returns the model named in the request, falling back to the response,
// or calllog.UnknownModel.
func Model(request, response string) string {
	if m, _, ok := modelChain.first(request); ok {
		return m
	}
	if m, _, ok := modelChain.first(response); ok {
		return m
	}
	return calllog.UnknownModel
}

func submatch(re *regexp.Regexp) func(string) (string, bool) {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return captured(m[1])
	}
}
