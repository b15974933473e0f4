package telegram

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	tb "gopkg.in/telebot.v3"
	"gopkg.in/yaml.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
)

// ResponseKey names a template of the response table.
type ResponseKey string

const (
	ResponseCTA             ResponseKey = "cta"
	ResponseGreeting        ResponseKey = "greeting"
	ResponseCommandNotFound ResponseKey = "command_not_found"

	ResponseStartSuccess ResponseKey = "start.success"
	ResponseStartToCTA   ResponseKey = "start.to_cta"

	ResponseNotifySuccess ResponseKey = "notifyme.success"
	ResponseNotifyToCTA   ResponseKey = "notifyme.to_cta"
	ResponseNotifyNothing ResponseKey = "notifyme.nothing"
	ResponseNotifyFailed  ResponseKey = "notifyme.failed"

	ResponseUnnotifySuccess ResponseKey = "unnotifyme.success"
	ResponseUnnotifyToCTA   ResponseKey = "unnotifyme.to_cta"
	ResponseUnnotifyNothing ResponseKey = "unnotifyme.nothing"
	ResponseUnnotifyFailed  ResponseKey = "unnotifyme.failed"

	ResponseNotification ResponseKey = "notification"
)

var allResponseKeys = []ResponseKey{
	ResponseCTA,
	ResponseGreeting,
	ResponseCommandNotFound,
	ResponseStartSuccess,
	ResponseStartToCTA,
	ResponseNotifySuccess,
	ResponseNotifyToCTA,
	ResponseNotifyNothing,
	ResponseNotifyFailed,
	ResponseUnnotifySuccess,
	ResponseUnnotifyToCTA,
	ResponseUnnotifyNothing,
	ResponseUnnotifyFailed,
	ResponseNotification,
}

var ErrInvalidResponses = errors.New("invalid response table")

//go:embed responses.yaml
var defaultResponses []byte

// Vars are substituted into templates as ${name}.
type Vars map[string]string

type responsesFile struct {
	Format    string                 `yaml:"format"`
	Responses map[ResponseKey]string `yaml:"responses"`
}

// Responses is a validated, immutable response table.
type Responses struct {
	parseMode tb.ParseMode
	templates map[ResponseKey]string
}

// DefaultResponses returns the embedded table. It panics if the embedded
// file is invalid, which the package tests guard against.
func DefaultResponses() *Responses {
	res, err := ParseResponses(defaultResponses)
	if err != nil {
		panic(fmt.Errorf("embedded responses: %w", err))
	}
	return res
}

// LoadResponses reads a table from path, or returns the embedded one when
// path is empty.
func LoadResponses(path string) (*Responses, error) {
	if path == "" {
		return DefaultResponses(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses file: %w", err)
	}
	return ParseResponses(data)
}

func ParseResponses(data []byte) (*Responses, error) {
	var f responsesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidResponses, fmt.Errorf("unmarshal: %w", err))
	}

	mode, err := parseMode(f.Format)
	if err != nil {
		return nil, errors.Join(ErrInvalidResponses, err)
	}

	var missing []string
	for _, key := range allResponseKeys {
		if strings.TrimSpace(f.Responses[key]) == "" {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(ErrInvalidResponses, fmt.Errorf("missing responses: %s", strings.Join(missing, ", ")))
	}

	return &Responses{
		parseMode: mode,
		templates: f.Responses,
	}, nil
}

func parseMode(format string) (tb.ParseMode, error) {
	switch tb.ParseMode(format) {
	case tb.ModeDefault, tb.ModeMarkdown, tb.ModeMarkdownV2, tb.ModeHTML:
		return tb.ParseMode(format), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func (r *Responses) ParseMode() tb.ParseMode {
	return r.parseMode
}

// Render substitutes vars into the template for key. Values are escaped for
// the table's parse mode so user supplied names cannot break formatting.
// Unknown placeholders are left untouched.
func (r *Responses) Render(key ResponseKey, vars Vars) string {
	text := r.templates[key]
	if len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2) //nolint:mnd // old, new
	for name, value := range vars {
		pairs = append(pairs, "${"+name+"}", r.escape(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// WithCTA renders key followed by the shared call-to-action links.
func (r *Responses) WithCTA(key ResponseKey, vars Vars) string {
	return r.Render(key, vars) + "\n" + r.templates[ResponseCTA]
}

// Notification renders the campaign announcement sent to subscribers.
func (r *Responses) Notification(c dal.Campaign, link string) string {
	return r.Render(ResponseNotification, Vars{
		"title":           c.Title,
		"author_name":     c.Author.Name,
		"author_username": c.Author.Username,
		"link":            link,
	})
}

var (
	markdownEscaper   = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)
	markdownV2Escaper = strings.NewReplacer(
		"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "~", `\~`, "`", "\\`",
		">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`,
		".", `\.`, "!", `\!`, `\`, `\\`,
	)
)

func (r *Responses) escape(s string) string {
	switch r.parseMode {
	case tb.ModeMarkdown:
		return markdownEscaper.Replace(s)
	case tb.ModeMarkdownV2:
		return markdownV2Escaper.Replace(s)
	case tb.ModeHTML:
		return html.EscapeString(s)
	default:
		return s
	}
}
