// Package rag orchestrates one question: resolve the caller, overlay
// personalization when available, retrieve passages, and generate an answer.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/qri-io/jsonschema"

	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/models"
	"github.com/physai/textbook-backend/internal/personalize"
	"github.com/physai/textbook-backend/pkg/ollama"
	"github.com/physai/textbook-backend/pkg/repository"
	"github.com/physai/textbook-backend/pkg/retrieval"
)

// ErrAnswerGeneration covers retrieval and generation failures. Unlike the
// personalization path, these are never absorbed: there is no meaningful
// default answer.
var ErrAnswerGeneration = errors.New("answer generation failed")

// Retriever is the content retrieval collaborator contract.
type Retriever interface {
	Search(ctx context.Context, query string) ([]retrieval.Passage, error)
}

// Generator is the text generation collaborator contract.
type Generator interface {
	Generate(ctx context.Context, in ollama.GenerateInput) (ollama.GenerateResult, error)
}

// Citation points the reader back at the textbook content an answer drew on.
type Citation struct {
	Chapter string  `json:"chapter"`
	Section string  `json:"section"`
	Score   float64 `json:"score"`
}

// Answer is the result of one orchestrated question.
type Answer struct {
	Text                   string     `json:"answer"`
	Citations              []Citation `json:"citations"`
	PersonalizationApplied bool       `json:"personalization_applied"`
}

// Caller is the resolved identity of a request: anonymous or a known account.
type Caller struct {
	AccountID int64
	Known     bool
}

type Orchestrator struct {
	tokens    *auth.TokenService
	profiles  repository.ProfileRepo
	records   repository.QueryRecordRepo
	retriever Retriever
	generator Generator
	cfg       config.QueryConfig
	validator *jsonschema.Schema
	logger    *slog.Logger
}

func NewOrchestrator(
	tokens *auth.TokenService,
	profiles repository.ProfileRepo,
	records repository.QueryRecordRepo,
	retriever Retriever,
	generator Generator,
	cfg config.QueryConfig,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if retriever == nil || generator == nil {
		return nil, fmt.Errorf("retriever and generator are required")
	}
	if cfg.AnswerTimeout == 0 {
		cfg.AnswerTimeout = 8 * time.Second
	}
	if cfg.ProfileTimeout == 0 {
		cfg.ProfileTimeout = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	validator, err := newAnswerValidator()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		tokens:    tokens,
		profiles:  profiles,
		records:   records,
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		validator: validator,
		logger:    logger,
	}, nil
}

// resolveCaller turns an optional access token into a Caller. Verification
// failures yield an anonymous caller; the HTTP layer decides separately
// whether a bad token is worth a 401.
func (o *Orchestrator) resolveCaller(accessToken string) Caller {
	if accessToken == "" {
		return Caller{}
	}

	accountID, err := o.tokens.Verify(accessToken)
	if err != nil {
		o.logger.Info("query token rejected, continuing anonymously", slog.Any("err", err))
		return Caller{}
	}

	return Caller{AccountID: accountID, Known: true}
}

// personalInstruction is the single guarded region of the pipeline: any
// failure fetching or composing the profile degrades to the default
// instruction. The sub-deadline keeps a slow profile store from delaying the
// whole answer.
func (o *Orchestrator) personalInstruction(ctx context.Context, caller Caller) (string, *models.Profile) {
	if !caller.Known || o.profiles == nil {
		return personalize.DefaultInstruction, nil
	}

	ctxProfile, cancel := context.WithTimeout(ctx, o.cfg.ProfileTimeout)
	defer cancel()

	profile, err := o.profiles.GetByAccountID(ctxProfile, caller.AccountID)
	if err != nil || profile == nil {
		if err != nil {
			o.logger.Warn("profile fetch failed, using default instruction", slog.Int64("account_id", caller.AccountID), slog.Any("err", err))
		}
		return personalize.DefaultInstruction, nil
	}

	return personalize.Compose(profile), profile
}

// Answer runs the full pipeline for one question.
func (o *Orchestrator) Answer(ctx context.Context, question, accessToken string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.AnswerTimeout)
	defer cancel()

	caller := o.resolveCaller(accessToken)
	instruction, profile := o.personalInstruction(ctx, caller)

	// retrieval is identical for every caller
	passages, err := o.retriever.Search(ctx, question)
	if err != nil {
		o.logger.Error("retrieval failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: retrieval: %v", ErrAnswerGeneration, err)
	}

	citations := make([]Citation, 0, len(passages))
	prompt := make([]promptPassage, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, Citation{Chapter: p.Chapter, Section: p.Section, Score: p.Score})
		prompt = append(prompt, promptPassage{Chapter: p.Chapter, Section: p.Section, Text: p.Text})
	}

	rendered, err := renderPrompt(question, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: render prompt: %v", ErrAnswerGeneration, err)
	}

	result, err := o.generator.Generate(ctx, ollama.GenerateInput{
		Model:  o.cfg.Model,
		System: instruction,
		Prompt: rendered,
	})
	if err != nil {
		o.logger.Error("generation failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: generation: %v", ErrAnswerGeneration, err)
	}

	text, err := parseStructuredAnswer(ctx, o.validator, result.Text)
	if err != nil {
		o.logger.Error("generation produced unusable output", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}

	answer := &Answer{
		Text:                   text,
		Citations:              citations,
		PersonalizationApplied: profile != nil,
	}

	o.record(ctx, caller, question, answer, profile)

	return answer, nil
}

// record appends a QueryRecord for analytics. Best effort: a storage failure
// here never fails the request.
func (o *Orchestrator) record(ctx context.Context, caller Caller, question string, answer *Answer, profile *models.Profile) {
	if !o.cfg.RecordQueries || o.records == nil {
		return
	}

	qr := &models.QueryRecord{Question: question, Answer: answer.Text}
	if caller.Known {
		accountID := caller.AccountID
		qr.AccountID = &accountID
	}
	if profile != nil {
		if snapshot, err := json.Marshal(profile); err == nil {
			s := string(snapshot)
			qr.Personalization = &s
		}
	}

	if _, err := o.records.CreateQueryRecord(ctx, qr); err != nil {
		o.logger.Warn("query record insert failed", slog.Any("err", err))
	}
}
