package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ktios/frontdesk/agent/availability"
	contractx "github.com/ktios/frontdesk/agent/contract"
	"github.com/ktios/frontdesk/agent/orchestrator"
	"github.com/ktios/frontdesk/agent/prompt"
	"github.com/ktios/frontdesk/agent/retrieval"
	storex "github.com/ktios/frontdesk/agent/store"
	"github.com/ktios/frontdesk/agent/tool"
	configx "github.com/ktios/frontdesk/pkg/config"
	logx "github.com/ktios/frontdesk/pkg/logger"
	openaix "github.com/ktios/frontdesk/pkg/openaiclient"
)

type AppConfig struct {
	TenantID      string `envconfig:"TENANT_ID" split_words:"true" required:"true"`
	CustomerPhone string `envconfig:"CUSTOMER_PHONE" split_words:"true" default:"+15145550000"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("FRONTDESK")

	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")
	client := openaix.NewClient(*openaiCfg)
	if client == nil {
		log.Fatal().Msg("failed to initialize openai client")
	}
	chat, err := openaix.NewChatAdapter(client, *openaiCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("chat adapter")
	}
	embedder, err := openaix.NewEmbeddingAdapter(client, *openaiCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("embedding adapter")
	}

	dbCfg := configx.MustNew[storex.Config]("DATABASE")
	db := storex.OpenDB(*dbCfg)
	defer db.Close()

	st := storex.NewPostgres(db)
	retriever := retrieval.NewPgVector(db, embedder)
	policy := *configx.MustNew[availability.Policy]("VENUE")

	factory := func(req contractx.TurnRequest) contractx.ToolExecutor {
		return tool.NewExecutor(st, policy, tool.Scope{
			TenantID:       req.TenantID,
			ConversationID: req.ConversationID,
			CustomerPhone:  req.CustomerPhone,
		})
	}

	orchCfg := configx.MustNew[orchestrator.Config]("AGENT")
	svc, err := orchestrator.New(*orchCfg, chat, retriever, st, factory, prompt.LoadPromptSet(), tool.Definitions(), st)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator")
	}

	runConsole(svc, appCfg)
}

// runConsole drives one conversation from stdin, one turn per line. Local
// testing surface; production channels call Service.Turn directly.
func runConsole(svc *orchestrator.Service, cfg *AppConfig) {
	conversationID := uuid.NewString()
	log.Info().Str("conversation_id", conversationID).Msg("front desk ready")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		res, err := svc.Turn(context.Background(), contractx.TurnRequest{
			TenantID:       cfg.TenantID,
			ConversationID: conversationID,
			CustomerPhone:  cfg.CustomerPhone,
			UserText:       text,
		})
		if err != nil {
			if errors.Is(err, contractx.ErrConversationSuppressed) {
				log.Info().Msg("conversation handed off, stopping")
				return
			}
			log.Error().Err(err).Msg("turn failed")
			continue
		}

		fmt.Println(res.ReplyText)
		log.Debug().
			Int("iterations", res.Debug.Iterations).
			Int("tool_calls", len(res.ToolCallsMade)).
			Str("finish_reason", res.FinishReason).
			Msg("turn complete")
	}
}
