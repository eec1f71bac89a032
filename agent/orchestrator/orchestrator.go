package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/ktios/frontdesk/agent/contract"
	"github.com/ktios/frontdesk/agent/prompt"
	"github.com/ktios/frontdesk/agent/retrieval"
	storex "github.com/ktios/frontdesk/agent/store"
)

// fallbackReply is returned when the iteration budget runs out before the
// model produces a final answer.
const fallbackReply = "Je rencontre une difficulté technique. Un membre de l'équipe va vous contacter."

type Config struct {
	MaxIterations int           `envconfig:"MAX_ITERATIONS" split_words:"true" default:"3"`
	MaxToolCalls  int           `envconfig:"MAX_TOOL_CALLS" split_words:"true" default:"8"`
	ModelTimeout  time.Duration `envconfig:"MODEL_TIMEOUT" split_words:"true" default:"30s"`
	TopK          int           `envconfig:"TOP_K" split_words:"true" default:"5"`
}

// turnState is the explicit phase of one turn. A turn only moves forward:
// awaitingModel -> executingTools -> awaitingModel ... -> done | exhausted.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateExecutingTools
	stateDone
	stateExhausted
)

// ExecutorFactory builds a tool executor scoped to one turn's tenant,
// conversation and caller.
type ExecutorFactory func(req contractx.TurnRequest) contractx.ToolExecutor

// SuppressionGate reports whether a conversation has been handed off and
// must no longer receive automated replies.
type SuppressionGate interface {
	ConversationSuppressed(ctx context.Context, tenantID, conversationID string) (bool, error)
}

// MessageSink records the inbound and outbound messages of a turn. Sink
// failures are logged, never fatal.
type MessageSink interface {
	AppendMessage(ctx context.Context, msg *storex.Message) error
}

// Service runs one bounded conversational turn at a time. It owns no state
// between turns; the transcript lives and dies inside Turn.
type Service struct {
	cfg       Config
	model     contractx.ChatModel
	retriever contractx.Retriever
	gate      SuppressionGate
	executors ExecutorFactory
	prompts   prompt.PromptSet
	tools     []contractx.ToolDefinition
	sink      MessageSink
}

func New(
	cfg Config,
	model contractx.ChatModel,
	retriever contractx.Retriever,
	gate SuppressionGate,
	executors ExecutorFactory,
	prompts prompt.PromptSet,
	tools []contractx.ToolDefinition,
	sink MessageSink,
) (*Service, error) {
	if model == nil {
		return nil, fmt.Errorf("orchestrator: model is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("orchestrator: retriever is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("orchestrator: suppression gate is required")
	}
	if executors == nil {
		return nil, fmt.Errorf("orchestrator: executor factory is required")
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 3
	}
	if cfg.MaxToolCalls < 1 {
		cfg.MaxToolCalls = 8
	}
	if cfg.TopK < 1 {
		cfg.TopK = retrieval.MaxContextChunks
	}
	return &Service{
		cfg:       cfg,
		model:     model,
		retriever: retriever,
		gate:      gate,
		executors: executors,
		prompts:   prompts,
		tools:     tools,
		sink:      sink,
	}, nil
}

// Turn runs one user message through the retrieve-model-tools loop and
// returns the final reply. The transcript is rebuilt from scratch on every
// call; the loop stops on a plain model reply or on the iteration budget.
func (s *Service) Turn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error) {
	if err := validateRequest(req); err != nil {
		return contractx.TurnResult{}, err
	}

	suppressed, err := s.gate.ConversationSuppressed(ctx, req.TenantID, req.ConversationID)
	if err != nil {
		return contractx.TurnResult{}, fmt.Errorf("suppression check: %w", err)
	}
	if suppressed {
		return contractx.TurnResult{}, fmt.Errorf("%w: conversation %s", contractx.ErrConversationSuppressed, req.ConversationID)
	}

	s.record(ctx, req, "inbound", contractx.RoleUser, req.UserText)

	snippets, err := s.retriever.Search(ctx, req.TenantID, req.UserText, s.cfg.TopK)
	if err != nil {
		// Retrieval is best effort; the model answers without venue context.
		log.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("retrieval failed, continuing without context")
		snippets = nil
	}

	transcript := []contractx.Message{
		{Role: contractx.RoleSystem, Content: s.prompts.System},
		{Role: contractx.RoleSystem, Content: prompt.KnowledgeMessage(retrieval.ContextBlock(snippets))},
		{Role: contractx.RoleUser, Content: req.UserText},
	}

	exec := s.executors(req)

	var (
		state      = stateAwaitingModel
		iterations = 0
		toolBudget = s.cfg.MaxToolCalls
		made       = []contractx.ToolCallRecord{}
		reply      string
		finish     string
	)

	for state == stateAwaitingModel {
		if iterations >= s.cfg.MaxIterations {
			state = stateExhausted
			break
		}
		iterations++

		resp, err := s.invokeModel(ctx, transcript)
		if err != nil {
			return contractx.TurnResult{}, fmt.Errorf("%w: iteration %d: %v", contractx.ErrModelInvoke, iterations, err)
		}

		if len(resp.ToolCalls) == 0 {
			reply = resp.Content
			finish = resp.FinishReason
			if finish == "" {
				finish = contractx.FinishStop
			}
			state = stateDone
			break
		}

		state = stateExecutingTools
		transcript = append(transcript, contractx.Message{
			Role:      contractx.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			var result any
			args := map[string]any{}

			switch {
			case toolBudget <= 0:
				result = map[string]any{"error": "tool call budget exhausted"}
			default:
				toolBudget--
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					result = map[string]any{"error": "invalid tool arguments: " + err.Error()}
				} else {
					result, err = exec.Execute(ctx, tc.Name, args)
					if err != nil {
						return contractx.TurnResult{}, fmt.Errorf("tool %s: %w", tc.Name, err)
					}
				}
			}

			made = append(made, contractx.ToolCallRecord{
				Name:      tc.Name,
				Arguments: args,
				Result:    result,
			})
			transcript = append(transcript, contractx.Message{
				Role:       contractx.RoleTool,
				Content:    marshalResult(result),
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}

		state = stateAwaitingModel
	}

	if state == stateExhausted {
		reply = fallbackReply
		finish = contractx.FinishMaxIterations
	}

	s.record(ctx, req, "outbound", contractx.RoleAssistant, reply)

	return contractx.TurnResult{
		ReplyText:     reply,
		ToolCallsMade: made,
		FinishReason:  finish,
		Debug: contractx.TurnDebug{
			Iterations:   iterations,
			KBChunksUsed: len(snippets),
		},
	}, nil
}

func (s *Service) invokeModel(ctx context.Context, transcript []contractx.Message) (contractx.ModelResponse, error) {
	if s.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ModelTimeout)
		defer cancel()
	}
	return s.model.Complete(ctx, transcript, s.tools)
}

func (s *Service) record(ctx context.Context, req contractx.TurnRequest, direction string, role contractx.Role, content string) {
	if s.sink == nil || content == "" {
		return
	}
	err := s.sink.AppendMessage(ctx, &storex.Message{
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		Direction:      direction,
		Role:           string(role),
		Content:        content,
	})
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("message persistence failed")
	}
}

func validateRequest(req contractx.TurnRequest) error {
	switch {
	case req.TenantID == "":
		return fmt.Errorf("%w: tenant_id is required", contractx.ErrValidation)
	case req.ConversationID == "":
		return fmt.Errorf("%w: conversation_id is required", contractx.ErrValidation)
	case req.UserText == "":
		return fmt.Errorf("%w: user_text is required", contractx.ErrValidation)
	}
	return nil
}

func marshalResult(result any) string {
	b, err := json.Marshal(result)
	if err != nil {
		return `{"error":"unserializable tool result"}`
	}
	return string(b)
}
