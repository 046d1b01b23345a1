package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/normalize"
	"github.com/draftdesk/docfill/pkg/anthropic"
)

// Models selects which model serves each call family and the per-request
// output token budget. Validation and classification run on the cheaper
// model; summaries, questions, and suggestions on the stronger one.
type Models struct {
	QA         string
	Validation string
	MaxTokens  int64
}

// contextSlice bounds how much surrounding text each prompt carries.
const contextSlice = 200

const summarizePrompt = `You are a precise summarizer for legal and investment agreements.

Summarize the following document in about 100 words.

Focus on:
- The type of agreement (e.g., SAFE, investment, loan)
- The involved parties
- The main purpose or obligations
- Any key variables such as amounts, dates, or governing law

Avoid filler language and boilerplate. Output only the summary paragraph, without bullets or formatting.

Document text:
%s`

const classifyPrompt = `You are analyzing a fillable field in a document to determine what type of value it expects.

Field name: %s

Context BEFORE the field:
%s

Context AFTER the field:
%s

Available types: legal_name, date, monetary_value, email, address, jurisdiction, numeric, text

Respond with exactly one type from the list, nothing else.`

const validatePrompt = `The user was asked to provide a value for the field below. Judge whether their input plausibly answers it and extract the exact value without embellishment.

Field name: %s
Expected type: %s

Context BEFORE the field:
%s

Context AFTER the field:
%s

User input: %s

Be lenient: accept hedged or informal phrasing when a usable value is present ("i think its acme inc" contains "Acme Inc"). Reject input that carries no information, is clearly off-type, or is a question back to you.

Respond with JSON only:
{"validation": "VALID" or "INVALID", "extracted_value": "<exact value if VALID>", "hint": "<one short sentence telling the user what to provide, if INVALID>"}`

const questionPrompt = `Write one short, plain question a non-lawyer can answer, asking for the value of the field below.

Field name: %s
Expected type: %s

Context BEFORE the field:
%s

Context AFTER the field:
%s

Already confirmed facts:
%s

Mention the expected format when it helps (dates, amounts, emails). Output only the question.`

const suggestPrompt = `The user was asked this question but could not answer it:

QUESTION: %s
%s
Suggest one realistic, plausible value. Never return template scaffolding like [Company Name] or {{Name}}.

Priority rules:
1. If the user's previous attempt contains a usable value, even hedged or misspelled, extract and use it.
2. The confirmed facts below belong to OTHER fields; use them for reference only.
3. Fall back to the document context only when the attempt holds nothing usable.

Confirmed facts (other fields):
%s

Field being filled: %s
Expected type: %s

Context from the document:
BEFORE: ...%s
AFTER: %s...

Format guidance by type: date as YYYY-MM-DD; monetary_value numeric only; email a valid address; legal_name a realistic company name; jurisdiction a US state.

Respond with the suggested value only, no explanation.`

// LiveClient implements Client over the Anthropic Messages API. The
// per-document system block carries a cache breakpoint, so repeated calls
// against the same reference hit the warm prompt cache.
type LiveClient struct {
	api    anthropic.Client
	models Models
}

var _ Client = (*LiveClient)(nil)

// NewLive builds a capability client on the given API wrapper.
func NewLive(api anthropic.Client, models Models) *LiveClient {
	if models.MaxTokens <= 0 {
		models.MaxTokens = 1024
	}
	return &LiveClient{api: api, models: models}
}

func (c *LiveClient) Summarize(ctx context.Context, text string) (string, error) {
	return c.message(ctx, c.models.QA, nil, fmt.Sprintf(summarizePrompt, text), 0.3, "summarize")
}

func (c *LiveClient) ClassifyType(ctx context.Context, req ClassifyRequest) (model.FieldType, error) {
	prompt := fmt.Sprintf(classifyPrompt,
		req.FieldName, tail(req.ContextBefore, contextSlice), head(req.ContextAfter, contextSlice))
	answer, err := c.message(ctx, c.models.Validation, systemFor(req.Summary), prompt, 0.0, "classify")
	if err != nil {
		return model.TypeText, err
	}
	label, _, _ := strings.Cut(answer, "\n")
	return model.ParseFieldType(strings.Trim(label, `."' `)), nil
}

func (c *LiveClient) ValidateAndExtract(ctx context.Context, req ValidationRequest) (Verdict, error) {
	prompt := fmt.Sprintf(validatePrompt,
		req.FieldName, req.ExpectedType,
		tail(req.ContextBefore, contextSlice), head(req.ContextAfter, contextSlice),
		req.UserInput)
	answer, err := c.message(ctx, c.models.Validation, systemFor(req.Summary), prompt, 0.2, "validate")
	if err != nil {
		return Verdict{}, err
	}
	return parseVerdict(answer, req.UserInput)
}

func (c *LiveClient) GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error) {
	prompt := fmt.Sprintf(questionPrompt,
		req.FieldName, req.ExpectedType,
		tail(req.ContextBefore, contextSlice), head(req.ContextAfter, contextSlice),
		normalize.FactsForPrompt(req.FactsByName))
	answer, err := c.message(ctx, c.models.QA, systemFor(req.Summary), prompt, 0.3, "question")
	if err != nil {
		return "", err
	}
	return strings.Trim(answer, "\"' \n"), nil
}

func (c *LiveClient) SuggestValue(ctx context.Context, req SuggestionRequest) (string, error) {
	attempt := ""
	if req.PriorAttempt != "" {
		attempt = fmt.Sprintf("\nThe user's previous attempt was: %q. It was rejected but may hold usable hints; extract any value present.\n", req.PriorAttempt)
	}
	prompt := fmt.Sprintf(suggestPrompt,
		req.QuestionText, attempt,
		normalize.FactsForPrompt(req.FactsByName),
		req.FieldName, req.ExpectedType,
		tail(req.ContextBefore, contextSlice), head(req.ContextAfter, contextSlice))
	answer, err := c.message(ctx, c.models.QA, systemFor(req.Summary), prompt, 0.5, "suggest")
	if err != nil {
		return "", err
	}
	return strings.Trim(answer, "\"' \n"), nil
}

// message sends one user prompt and returns the trimmed text reply. An empty
// reply is an error so callers fall back the same way as on transport
// failure.
func (c *LiveClient) message(ctx context.Context, modelID string, system []anthropic.SystemBlock, prompt string, temperature float64, phase string) (string, error) {
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       modelID,
		MaxTokens:   c.models.MaxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", eris.Wrapf(err, "capability: %s call", phase)
	}
	resp.Usage.LogCost(modelID, phase)
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Errorf("capability: %s returned an empty response", phase)
	}
	return text, nil
}

// systemFor builds the per-document system context. The block is stable for
// a reference, which is what makes the cache breakpoint worthwhile.
func systemFor(summary string) []anthropic.SystemBlock {
	text := "You are helping complete a legal document template."
	if summary != "" {
		text += "\n\nDocument summary:\n" + summary
	}
	return anthropic.BuildCachedSystemBlocks(text)
}

// verdictPayload mirrors the JSON shape the validator is instructed to
// return.
type verdictPayload struct {
	Validation     string `json:"validation"`
	ExtractedValue string `json:"extracted_value"`
	Hint           string `json:"hint"`
}

// parseVerdict decodes the validator reply. A VALID verdict with no
// extracted value falls back to the user's input, matching the lenient
// extraction contract.
func parseVerdict(answer, userInput string) (Verdict, error) {
	var p verdictPayload
	if err := json.Unmarshal([]byte(cleanJSON(answer)), &p); err != nil {
		return Verdict{}, eris.Wrap(err, "capability: parse validation verdict")
	}
	v := Verdict{
		Valid: strings.EqualFold(strings.TrimSpace(p.Validation), "VALID"),
		Hint:  strings.TrimSpace(p.Hint),
	}
	if v.Valid {
		v.ExtractedValue = strings.TrimSpace(p.ExtractedValue)
		if v.ExtractedValue == "" {
			v.ExtractedValue = strings.TrimSpace(userInput)
		}
	}
	return v, nil
}

// cleanJSON strips markdown fences and surrounding prose from a model reply,
// keeping the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// tail returns at most n runes from the end of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// head returns at most n runes from the start of s.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
