package inference

import (
	"context"
	"errors"
	"strings"
)

// OutcomeKind is the three-way classification of a generation request.
type OutcomeKind int

const (
	OutcomeImage OutcomeKind = iota
	OutcomeQuota
	OutcomeFailure
)

// Outcome is the classified result of one generation request. Exactly one of
// Image, Notice, or Reason is meaningful, selected by Kind. Notice is written
// for the end user; Reason is internal detail for the logs.
type Outcome struct {
	Kind   OutcomeKind
	Image  []byte
	Notice string
	Reason error
}

func ImageOutcome(image []byte) Outcome {
	return Outcome{Kind: OutcomeImage, Image: image}
}

func QuotaOutcome(notice string) Outcome {
	return Outcome{Kind: OutcomeQuota, Notice: notice}
}

func FailureOutcome(reason error) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

// ErrEmptyPrompt rejects blank prompts before they reach the provider.
var ErrEmptyPrompt = errors.New("empty prompt")

// QuotaNotice is the user-facing text for an exhausted quota. It is fixed so
// that no provider detail can leak into a chat.
const QuotaNotice = "Daily image quota reached. Please try again later."

// GenerateClient is the raw provider call the gateway folds into an Outcome.
type GenerateClient interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Gateway turns provider calls into Outcomes. Generate never returns an
// error: every failure mode is folded into the quota or failure variant.
type Gateway struct {
	client GenerateClient
}

func NewGateway(client GenerateClient) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Generate(ctx context.Context, prompt string) Outcome {
	if strings.TrimSpace(prompt) == "" {
		return FailureOutcome(ErrEmptyPrompt)
	}

	image, err := g.client.Generate(ctx, prompt)
	if err != nil {
		if IsQuota(err) {
			return QuotaOutcome(QuotaNotice)
		}
		return FailureOutcome(err)
	}
	if len(image) == 0 {
		return FailureOutcome(errors.New("provider returned no image"))
	}
	return ImageOutcome(image)
}
