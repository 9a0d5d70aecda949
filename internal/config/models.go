package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
	Timeout  string
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress   string
	ShutdownTimeout string
}

// SessionConfig represents the session cookie configuration
type SessionConfig struct {
	CookieName string
	Secret     string
	TTL        string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// StorageConfig represents the history store configuration
type StorageConfig struct {
	Type        string
	SQLitePath  string
	PostgresDSN string
	MySQLDSN    string
}

// HistoryConfig represents history listing tunables
type HistoryConfig struct {
	Limit         int
	SnippetLength int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  c.GetString("llm.timeout"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		ShutdownTimeout: c.GetString("server.shutdown_timeout"),
	}
}

// GetSession returns the session configuration
func (c *Config) GetSession() SessionConfig {
	return SessionConfig{
		CookieName: c.GetString("session.cookie_name"),
		Secret:     c.GetString("session.secret"),
		TTL:        c.GetString("session.ttl"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:        c.GetString("storage.type"),
		SQLitePath:  c.GetString("storage.sqlite_path"),
		PostgresDSN: c.GetString("storage.postgres_dsn"),
		MySQLDSN:    c.GetString("storage.mysql_dsn"),
	}
}

// GetHistory returns the history listing configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Limit:         c.GetInt("history.limit"),
		SnippetLength: c.GetInt("history.snippet_length"),
	}
}
