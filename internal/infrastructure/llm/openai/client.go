package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lwchen/ragbench/internal/infrastructure/resilience"
)

type Config struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	GenModel   string
	JudgeModel string
	// RequestsPerSecond throttles outbound calls across all three roles.
	// Zero disables throttling.
	RequestsPerSecond float64
}

func (c Config) normalize() Config {
	if c.EmbedModel == "" {
		c.EmbedModel = string(openai.SmallEmbedding3)
	}
	if c.GenModel == "" {
		c.GenModel = openai.GPT4oMini
	}
	if c.JudgeModel == "" {
		c.JudgeModel = c.GenModel
	}
	return c
}

// Client backs all three LLM roles of the pipeline: query/document
// embedding, answer generation, and answer judging. One rate limiter covers
// them because they share the provider quota.
type Client struct {
	api      *openai.Client
	cfg      Config
	executor *resilience.Executor
	limiter  *rate.Limiter
}

func New(cfg Config, executor *resilience.Executor) *Client {
	cfg = cfg.normalize()

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		api:      openai.NewClientWithConfig(apiCfg),
		cfg:      cfg,
		executor: executor,
		limiter:  limiter,
	}
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := c.execute(ctx, "embed", func(ctx context.Context) error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: openai.EmbeddingModel(c.cfg.EmbedModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			vectors[i] = item.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "generate", openai.ChatCompletionRequest{
		Model: c.cfg.GenModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// Judge asks the judge model for a Pass/Fail verdict. Near-zero temperature
// and a tight token cap keep the verdict deterministic and cheap.
func (c *Client) Judge(ctx context.Context, question, goldAnswer, generatedAnswer string) (string, error) {
	return c.chat(ctx, "judge", openai.ChatCompletionRequest{
		Model: c.cfg.JudgeModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildJudgePrompt(question, goldAnswer, generatedAnswer)},
		},
		Temperature: 1e-6,
		MaxTokens:   10,
	})
}

func (c *Client) chat(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	var text string
	err := c.execute(ctx, operation, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion result")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := c.executor.Execute(ctx, "openai_"+operation, fn, classifyOpenAIError)
	return wrapTemporaryIfNeeded(operation, err)
}
