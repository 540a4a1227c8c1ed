// Package config loads the voice assistant configuration from a .env file,
// environment variables, and defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Mode names the front end a configuration is validated for.
type Mode string

const (
	ModeConsole Mode = "console"
	ModeWeb     Mode = "web"
	ModePhone   Mode = "phone"
)

// Config is the root configuration.
type Config struct {
	STT     STTConfig     `mapstructure:"stt"`
	LLM     LLMConfig     `mapstructure:"llm"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
	Tunnel  TunnelConfig  `mapstructure:"tunnel"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// STTConfig selects and configures the speech-to-text backend.
type STTConfig struct {
	Backend               string `mapstructure:"backend"` // "google", "deepgram" or "whisper"
	Language              string `mapstructure:"language"`
	GoogleCredentialsFile string `mapstructure:"google_credentials_file"`
	DeepgramAPIKey        string `mapstructure:"deepgram_api_key"`
	DeepgramModel         string `mapstructure:"deepgram_model"`
}

// LLMConfig selects and configures the reply generator.
type LLMConfig struct {
	Backend      string `mapstructure:"backend"` // "gemini" or "openai"
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	OpenAIModel  string `mapstructure:"openai_model"`
}

// OpenAIConfig is shared by the OpenAI chat and Whisper backends.
type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	WhisperModel string `mapstructure:"whisper_model"`
}

// TTSConfig holds ElevenLabs settings.
type TTSConfig struct {
	ElevenLabsAPIKey string `mapstructure:"elevenlabs_api_key"`
	VoiceID          string `mapstructure:"voice_id"`
	ModelID          string `mapstructure:"model_id"`
	OutputFormat     string `mapstructure:"output_format"`
}

// TwilioConfig holds telephony credentials and call settings.
type TwilioConfig struct {
	AccountSID        string `mapstructure:"account_sid"`
	AuthToken         string `mapstructure:"auth_token"`
	PhoneNumber       string `mapstructure:"phone_number"`
	TargetNumber      string `mapstructure:"target_number"`
	ValidateSignature bool   `mapstructure:"validate_signature"`
}

// TunnelConfig decides how the phone server is reached from the internet.
// PublicURL wins over ngrok when both are set.
type TunnelConfig struct {
	PublicURL      string `mapstructure:"public_url"`
	NgrokAuthToken string `mapstructure:"ngrok_auth_token"`
}

// AudioConfig controls microphone capture and generated audio lifetime.
type AudioConfig struct {
	SampleRate      int           `mapstructure:"sample_rate"`
	ListenTimeout   time.Duration `mapstructure:"listen_timeout"`
	PhraseLimit     time.Duration `mapstructure:"phrase_limit"`
	PauseThreshold  time.Duration `mapstructure:"pause_threshold"`
	AmbientDuration time.Duration `mapstructure:"ambient_duration"`
	ReplyPause      time.Duration `mapstructure:"reply_pause"`
	CleanupDelay    time.Duration `mapstructure:"cleanup_delay"`
	Dir             string        `mapstructure:"dir"`
}

// StoreConfig configures where generated audio lives until it is fetched.
type StoreConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	SigningKey    string `mapstructure:"signing_key"`
}

// ServerConfig holds the listen address of the web and phone servers.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// envBindings maps config keys to the environment variables that set them.
// When several names are listed the first one present wins.
var envBindings = map[string][]string{
	"stt.backend":                 {"STT_BACKEND"},
	"stt.language":                {"STT_LANGUAGE"},
	"stt.google_credentials_file": {"GOOGLE_APPLICATION_CREDENTIALS"},
	"stt.deepgram_api_key":        {"DEEPGRAM_API_KEY"},
	"stt.deepgram_model":          {"DEEPGRAM_MODEL"},
	"llm.backend":                 {"LLM_BACKEND"},
	"llm.gemini_api_key":          {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"llm.gemini_model":            {"GEMINI_MODEL"},
	"llm.openai_model":            {"OPENAI_MODEL"},
	"openai.api_key":              {"OPENAI_API_KEY", "OPEN_AI_API_KEY"},
	"openai.whisper_model":        {"WHISPER_MODEL"},
	"tts.elevenlabs_api_key":      {"ELEVENLABS_API_KEY", "ELEVEN_LABS_API_KEY"},
	"tts.voice_id":                {"ELEVENLABS_VOICE_ID"},
	"tts.model_id":                {"ELEVENLABS_MODEL_ID"},
	"tts.output_format":           {"ELEVENLABS_OUTPUT_FORMAT"},
	"twilio.account_sid":          {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":           {"TWILIO_AUTH_TOKEN"},
	"twilio.phone_number":         {"TWILIO_PHONE_NUMBER", "TWILIO_FROM_NUMBER"},
	"twilio.target_number":        {"TARGET_PHONE_NUMBER"},
	"twilio.validate_signature":   {"TWILIO_VALIDATE_SIGNATURE"},
	"tunnel.public_url":           {"PUBLIC_URL", "BASE_URL"},
	"tunnel.ngrok_auth_token":     {"NGROK_AUTH_TOKEN", "NGROK_AUTHTOKEN"},
	"audio.sample_rate":           {"AUDIO_SAMPLE_RATE"},
	"audio.listen_timeout":        {"LISTEN_TIMEOUT"},
	"audio.phrase_limit":          {"PHRASE_LIMIT"},
	"audio.pause_threshold":       {"PAUSE_THRESHOLD"},
	"audio.ambient_duration":      {"AMBIENT_DURATION"},
	"audio.reply_pause":           {"REPLY_PAUSE"},
	"audio.cleanup_delay":         {"AUDIO_CLEANUP_DELAY"},
	"audio.dir":                   {"AUDIO_DIR"},
	"store.redis_addr":            {"REDIS_ADDR"},
	"store.redis_password":        {"REDIS_PASSWORD"},
	"store.redis_db":              {"REDIS_DB"},
	"store.signing_key":           {"AUDIO_SIGNING_KEY"},
	"server.host":                 {"HOST"},
	"server.port":                 {"PORT"},
	"logging.level":               {"LOG_LEVEL"},
	"logging.format":              {"LOG_FORMAT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("stt.backend", "google")
	v.SetDefault("stt.language", "en-US")
	v.SetDefault("stt.deepgram_model", "nova-2")
	v.SetDefault("llm.backend", "gemini")
	v.SetDefault("llm.gemini_model", "gemini-2.0-flash")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("openai.whisper_model", "whisper-1")
	v.SetDefault("tts.voice_id", "JBFqnCBsd6RMkjVDRZzb")
	v.SetDefault("tts.model_id", "eleven_multilingual_v2")
	v.SetDefault("tts.output_format", "mp3_44100_128")
	v.SetDefault("twilio.validate_signature", false)
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.listen_timeout", 10*time.Second)
	v.SetDefault("audio.phrase_limit", 30*time.Second)
	v.SetDefault("audio.pause_threshold", 800*time.Millisecond)
	v.SetDefault("audio.ambient_duration", time.Second)
	v.SetDefault("audio.reply_pause", time.Second)
	v.SetDefault("audio.cleanup_delay", 3*time.Second)
	v.SetDefault("audio.dir", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads envFile (if it exists) into the process environment, then
// builds a Config from environment variables and defaults.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "reading %s", envFile)
		}
		slog.Debug("no .env file found, falling back to environment variables", "path", envFile)
	}

	v := viper.New()
	setDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, errors.Wrapf(err, "binding %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	cfg.STT.Backend = strings.ToLower(strings.TrimSpace(cfg.STT.Backend))
	cfg.LLM.Backend = strings.ToLower(strings.TrimSpace(cfg.LLM.Backend))
	cfg.Tunnel.PublicURL = strings.TrimRight(cfg.Tunnel.PublicURL, "/")
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = os.TempDir()
	}
	return &cfg, nil
}

// Validate reports every setting the given front end needs but lacks.
func (c *Config) Validate(mode Mode) error {
	var missing []string
	require := func(val, name string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}

	switch c.LLM.Backend {
	case "gemini":
		require(c.LLM.GeminiAPIKey, "GOOGLE_API_KEY")
	case "openai":
		require(c.OpenAI.APIKey, "OPENAI_API_KEY")
	default:
		return errors.Errorf("unknown LLM backend %q", c.LLM.Backend)
	}
	require(c.TTS.ElevenLabsAPIKey, "ELEVENLABS_API_KEY")

	switch mode {
	case ModeConsole, ModeWeb:
		switch c.STT.Backend {
		case "google":
			// Application Default Credentials are allowed, so nothing is required.
		case "deepgram":
			require(c.STT.DeepgramAPIKey, "DEEPGRAM_API_KEY")
		case "whisper":
			require(c.OpenAI.APIKey, "OPENAI_API_KEY")
		default:
			return errors.Errorf("unknown STT backend %q", c.STT.Backend)
		}
	case ModePhone:
		require(c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
		require(c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
		require(c.Twilio.PhoneNumber, "TWILIO_PHONE_NUMBER")
		if c.Tunnel.PublicURL == "" && c.Tunnel.NgrokAuthToken == "" {
			missing = append(missing, "PUBLIC_URL or NGROK_AUTH_TOKEN")
		}
	default:
		return errors.Errorf("unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return errors.Errorf("%s mode: missing %s", mode, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
