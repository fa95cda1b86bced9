package profile

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory (used by the embedded vector store)
	Data string
	// Driver is the vector store driver (postgres or chromem)
	Driver string
	// DSN points to the Postgres instance when Driver is "postgres"
	DSN string
	// Version is the current version of server
	Version string

	// AI configuration
	AILLMProvider        string // MAILSENSE_AI_LLM_PROVIDER (default: openai)
	AILLMModel           string // MAILSENSE_AI_LLM_MODEL (default: gpt-4o-mini)
	AIEmbeddingProvider  string // MAILSENSE_AI_EMBEDDING_PROVIDER (default: openai)
	AIEmbeddingModel     string // MAILSENSE_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIOpenAIAPIKey       string // MAILSENSE_AI_OPENAI_API_KEY
	AIOpenAIBaseURL      string // MAILSENSE_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey     string // MAILSENSE_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL    string // MAILSENSE_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AISiliconFlowAPIKey  string // MAILSENSE_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL string // MAILSENSE_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)

	// Chat transport configuration
	ChatSendURL            string // MAILSENSE_CHAT_SEND_URL: endpoint operator chat messages are POSTed to
	OperatorConversationID string // MAILSENSE_OPERATOR_CONVERSATION_ID: default conversation prompted on inbound email

	// Outbound delivery configuration
	OutboundWebhookURL string // MAILSENSE_OUTBOUND_WEBHOOK_URL: downstream "send the email" hook
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if at least one completion provider is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIOpenAIAPIKey != "" || p.AIDeepSeekAPIKey != "" || p.AISiliconFlowAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from MAILSENSE_* environment variables.
func (p *Profile) FromEnv() {
	p.AILLMProvider = getEnvOrDefault("MAILSENSE_AI_LLM_PROVIDER", "openai")
	p.AILLMModel = getEnvOrDefault("MAILSENSE_AI_LLM_MODEL", "gpt-4o-mini")
	p.AIEmbeddingProvider = getEnvOrDefault("MAILSENSE_AI_EMBEDDING_PROVIDER", "openai")
	p.AIEmbeddingModel = getEnvOrDefault("MAILSENSE_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIOpenAIAPIKey = os.Getenv("MAILSENSE_AI_OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("MAILSENSE_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = os.Getenv("MAILSENSE_AI_DEEPSEEK_API_KEY")
	p.AIDeepSeekBaseURL = getEnvOrDefault("MAILSENSE_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	p.AISiliconFlowAPIKey = os.Getenv("MAILSENSE_AI_SILICONFLOW_API_KEY")
	p.AISiliconFlowBaseURL = getEnvOrDefault("MAILSENSE_AI_SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1")

	p.ChatSendURL = os.Getenv("MAILSENSE_CHAT_SEND_URL")
	p.OperatorConversationID = os.Getenv("MAILSENSE_OPERATOR_CONVERSATION_ID")
	p.OutboundWebhookURL = os.Getenv("MAILSENSE_OUTBOUND_WEBHOOK_URL")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "postgres" && p.Driver != "chromem" {
		p.Driver = "chromem"
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.Driver == "chromem" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
	}

	for name, raw := range map[string]string{
		"chat send URL":        p.ChatSendURL,
		"outbound webhook URL": p.OutboundWebhookURL,
	} {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}

	return nil
}

// ListenAddress returns the host:port the server binds to.
func (p *Profile) ListenAddress() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}
