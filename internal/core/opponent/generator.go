// Package opponent produces the automated opponent's next argument.
package opponent

import (
	"context"
	"fmt"
	"strings"

	"github.com/adjeilabs/gavel/internal/config"
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
	"github.com/adjeilabs/gavel/internal/core/transcript"
	"github.com/adjeilabs/gavel/internal/llm"
)

const noSubmission = "No submission."

type Generator struct {
	LLM       llm.LLMClient
	Assembler *transcript.Assembler
	Prompts   config.OpponentPrompts
}

func NewGenerator(llmClient llm.LLMClient, assembler *transcript.Assembler, prompts config.OpponentPrompts) *Generator {
	return &Generator{
		LLM:       llmClient,
		Assembler: assembler,
		Prompts:   prompts,
	}
}

// Respond generates the automated side's contribution for the given stage,
// grounded in the assembled history of the case.
func (g *Generator) Respond(ctx context.Context, c *model.Case, st stage.Stage) (string, error) {
	if c.OpponentType != model.OpponentAI || !c.AISide.Valid() {
		return "", fmt.Errorf("case %s has no automated opponent", c.UUID)
	}

	assembled, err := g.Assembler.Assemble(ctx, c, st, c.AISide)
	if err != nil {
		return "", fmt.Errorf("failed to assemble context: %w", err)
	}

	prompt := g.BuildPrompt(c, st, assembled)

	text, err := g.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate argument: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("generator returned an empty argument")
	}
	return text, nil
}

// BuildPrompt renders the generation prompt. Every prior stage section is
// always present, with explicit "No submission." placeholders, so the prompt
// shape does not depend on how far the argument has progressed.
func (g *Generator) BuildPrompt(c *model.Case, st stage.Stage, assembled *transcript.Context) string {
	side := c.AISide
	userSide := side.Opponent()

	var b strings.Builder
	b.WriteString(fmt.Sprintf(g.Prompts.System, c.CaseType, side, side.Party()))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(g.Prompts.Intro, side, side.Party(), c.CaseType))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Case Title: %s\n", c.Title))
	summary := c.Summary
	if summary == "" {
		summary = "N/A"
	}
	b.WriteString(fmt.Sprintf("Case Summary: %s\n\n", summary))

	for _, prior := range assembled.Prior {
		b.WriteString(fmt.Sprintf("%s:\n", stage.Label(prior.Stage)))
		b.WriteString(fmt.Sprintf("Opponent (Lawyer %s):\n%s\n\n", userSide, textOrPlaceholder(prior.Other)))
		b.WriteString(fmt.Sprintf("Your previous response:\n%s\n\n", textOrPlaceholder(prior.Own)))
	}

	b.WriteString(fmt.Sprintf("Current Stage (%s):\n", stage.Label(st)))
	b.WriteString(fmt.Sprintf("Opponent's argument:\n%s\n\n", textOrPlaceholder(assembled.CurrentOpponent)))
	if len(assembled.CurrentOpponent) > 0 {
		b.WriteString(g.Prompts.QuotingRules)
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf(g.Prompts.Instruction, stage.Label(st), side))
	return b.String()
}

func textOrPlaceholder(texts []string) string {
	if len(texts) == 0 {
		return noSubmission
	}
	return transcript.Join(texts)
}
