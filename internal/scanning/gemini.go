package scanning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Oracle interface using Google Gemini function calling
type Gemini struct {
	client  *genai.Client
	name    string
	models  map[string]*genai.GenerativeModel
	timeout time.Duration
}

// NewGemini creates a new Gemini Oracle instance
func NewGemini(apiKey string, modelName string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	g := &Gemini{
		client:  client,
		name:    modelName,
		models:  make(map[string]*genai.GenerativeModel),
		timeout: timeout,
	}
	for _, fn := range []Function{ExtractInvoice, ExtractHeaders} {
		g.models[fn.Name] = g.newModel(fn)
	}
	return g, nil
}

// newModel returns a model that only knows about fn, so any function call it makes is fn
func (g *Gemini) newModel(fn Function) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.name)
	model.SetMaxOutputTokens(2048)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  genaiSchema(fn),
		}},
	}}
	return model
}

// Call asks Gemini to call fn on the document and returns the call's arguments
func (g *Gemini) Call(ctx context.Context, fn Function, doc Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model, ok := g.models[fn.Name]
	if !ok {
		model = g.newModel(fn)
	}

	var parts []genai.Part
	if doc.IsText() {
		parts = []genai.Part{genai.Text(fn.Instruction + "\n\n" + doc.Text)}
	} else {
		// genai.ImageData expects just the format suffix (e.g., "jpeg"), not the full MIME type
		format := strings.TrimPrefix(doc.MIMEType, "image/")
		parts = []genai.Part{
			genai.Text(fn.Instruction),
			genai.ImageData(format, doc.Image),
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoResponse
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			if p.Name == fn.Name {
				args, err := json.Marshal(p.Args)
				if err != nil {
					return nil, fmt.Errorf("marshaling function arguments: %w", err)
				}
				return args, nil
			}
		case genai.Text:
			responseText.WriteString(string(p))
		}
	}

	// Some replies put the JSON in plain text instead of a function call
	if text := strings.TrimSpace(responseText.String()); text != "" {
		if obj, err := extractJSONObject(text); err == nil {
			return []byte(obj), nil
		}
	}
	return emptyArguments, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

func genaiSchema(fn Function) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fn.fields))
	for _, fd := range fn.fields {
		t := genai.TypeString
		if fd.kind == kindNumber {
			t = genai.TypeNumber
		}
		props[fd.name] = &genai.Schema{Type: t}
	}
	object := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   fn.required,
	}
	if !fn.list {
		return object
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items": {Type: genai.TypeArray, Items: object},
		},
		Required: []string{"items"},
	}
}
