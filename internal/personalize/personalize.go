// Package personalize maps a reader profile to the natural-language
// instruction block handed to the generation model as a system directive.
package personalize

import (
	"strings"

	"github.com/physai/textbook-backend/internal/models"
)

const basePrompt = "You are an assistant for a university-level textbook on Physical AI and Humanoid Robotics. " +
	"You must answer questions using ONLY the provided textbook context. " +
	"Do not use external knowledge. Do not make assumptions. " +
	"If the answer is not present in the context, respond EXACTLY with: " +
	"'I could not find this information in the textbook.'"

const beginnerPrompt = "Provide clear, beginner-friendly explanations. " +
	"Break down complex concepts into simple, digestible parts. " +
	"Use analogies and examples that are easy to understand. " +
	"Explain technical terms when first introduced. " +
	"Assume the reader is learning these concepts for the first time."

const intermediatePrompt = "Provide explanations that are clear but assume some foundational knowledge. " +
	"Include technical details but explain them in context. " +
	"Balance between depth and accessibility. " +
	"Assume the reader has some experience with robotics or AI concepts."

const advancedPrompt = "Provide detailed, technical explanations. " +
	"Include advanced concepts, implementation details, and nuanced discussions. " +
	"Assume the reader has significant experience with robotics, AI, or related fields. " +
	"Include mathematical concepts and algorithmic details where relevant."

const closingPrompt = "Your tone must be factual, concise, and appropriate for the reader's experience level. " +
	"Do not mention the retrieval process or any internal systems. " +
	"If multiple passages are relevant, synthesize them into one coherent answer."

// DefaultInstruction is used whenever no profile is available: anonymous
// callers, missing profiles, or a personalization-path failure.
const DefaultInstruction = basePrompt + "\n\n" + intermediatePrompt + "\n\n" + closingPrompt

// Compose builds the instruction block for a profile. Pure and total: any
// profile, including a zero value, yields a valid instruction. The template
// follows the higher of the two experience dimensions.
func Compose(p *models.Profile) string {
	if p == nil {
		return DefaultInstruction
	}

	level := p.SoftwareExperience.Rank()
	if hw := p.HardwareExperience.Rank(); hw > level {
		level = hw
	}

	var experiencePrompt string
	switch level {
	case 0:
		experiencePrompt = beginnerPrompt
	case 1:
		experiencePrompt = intermediatePrompt
	default:
		experiencePrompt = advancedPrompt
	}

	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\n")
	sb.WriteString(experiencePrompt)
	if len(p.Interests) > 0 {
		sb.WriteString("\n\nThe reader has expressed interest in: ")
		sb.WriteString(strings.Join(p.Interests, ", "))
		sb.WriteString(". When relevant to the question, connect the answer to these interests.")
	}
	sb.WriteString("\n\n")
	sb.WriteString(closingPrompt)

	return sb.String()
}
