package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Phonemize PhonemizeConfig `mapstructure:"phonemize"`
	Separator SeparatorConfig `mapstructure:"separator"`
	Server    ServerConfig    `mapstructure:"server"`
}

type PathsConfig struct {
	G2PDir string `mapstructure:"g2p_dir"`
}

type PhonemizeConfig struct {
	Backend             string `mapstructure:"backend"`
	Language            string `mapstructure:"language"`
	BackendPath         string `mapstructure:"backend_path"`
	PreservePunctuation bool   `mapstructure:"preserve_punctuation"`
	PunctuationMarks    string `mapstructure:"punctuation_marks"`
	Strip               bool   `mapstructure:"strip"`
	NJobs               int    `mapstructure:"njobs"`
	LanguageSwitch      string `mapstructure:"language_switch"`
	WordsMismatch       string `mapstructure:"words_mismatch"`
	WithStress          bool   `mapstructure:"with_stress"`
	Tie                 string `mapstructure:"tie"`
}

type SeparatorConfig struct {
	Word     string `mapstructure:"word"`
	Syllable string `mapstructure:"syllable"`
	Phone    string `mapstructure:"phone"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout_sec"`
	Workers         int    `mapstructure:"workers"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout_sec"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			G2PDir: "",
		},
		Phonemize: PhonemizeConfig{
			Backend:             BackendEspeak,
			Language:            "en-us",
			BackendPath:         "",
			PreservePunctuation: false,
			PunctuationMarks:    "",
			Strip:               false,
			NJobs:               1,
			LanguageSwitch:      "keep-flags",
			WordsMismatch:       "ignore",
			WithStress:          false,
			Tie:                 "",
		},
		Separator: SeparatorConfig{
			Word:     " ",
			Syllable: "",
			Phone:    "",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    1 << 20,
			RequestTimeout:  60,
			Workers:         4,
			ShutdownTimeout: 10,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-g2p-dir", defaults.Paths.G2PDir, "Directory of *.g2p profiles for the segments backend")
	fs.String("phonemize-backend", defaults.Phonemize.Backend, "Phonemization backend (espeak|espeak-mbrola|festival|segments)")
	fs.String("phonemize-language", defaults.Phonemize.Language, "Language code understood by the backend")
	fs.String("phonemize-backend-path", defaults.Phonemize.BackendPath, "Path to the backend executable (overrides PATH lookup)")
	fs.Bool("phonemize-preserve-punctuation", defaults.Phonemize.PreservePunctuation, "Restore punctuation marks in the output")
	fs.String("phonemize-punctuation-marks", defaults.Phonemize.PunctuationMarks, "Characters treated as punctuation (default set when empty)")
	fs.Bool("phonemize-strip", defaults.Phonemize.Strip, "Strip trailing separators from phonemized lines")
	fs.Int("phonemize-njobs", defaults.Phonemize.NJobs, "Max concurrent backend subprocess chunks")
	fs.String("phonemize-language-switch", defaults.Phonemize.LanguageSwitch, "Language switch handling (keep-flags|remove-flags|remove-utterance)")
	fs.String("phonemize-words-mismatch", defaults.Phonemize.WordsMismatch, "Word count mismatch handling (ignore|warn|remove)")
	fs.Bool("phonemize-with-stress", defaults.Phonemize.WithStress, "Keep stress marks in espeak output")
	fs.String("phonemize-tie", defaults.Phonemize.Tie, "Tie character for espeak multi-letter phonemes")
	fs.String("separator-word", defaults.Separator.Word, "Separator between words")
	fs.String("separator-syllable", defaults.Separator.Syllable, "Separator between syllables")
	fs.String("separator-phone", defaults.Separator.Phone, "Separator between phones")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Int("server-request-timeout-sec", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent phonemize requests")
	fs.Int("server-shutdown-timeout-sec", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("PHONEMIZER")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("phonemize.backend_path", "PHONEMIZER_BACKEND_PATH", "PHONEMIZER_ESPEAK_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind backend path env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("phonemizer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.g2p_dir", c.Paths.G2PDir)
	v.SetDefault("phonemize.backend", c.Phonemize.Backend)
	v.SetDefault("phonemize.language", c.Phonemize.Language)
	v.SetDefault("phonemize.backend_path", c.Phonemize.BackendPath)
	v.SetDefault("phonemize.preserve_punctuation", c.Phonemize.PreservePunctuation)
	v.SetDefault("phonemize.punctuation_marks", c.Phonemize.PunctuationMarks)
	v.SetDefault("phonemize.strip", c.Phonemize.Strip)
	v.SetDefault("phonemize.njobs", c.Phonemize.NJobs)
	v.SetDefault("phonemize.language_switch", c.Phonemize.LanguageSwitch)
	v.SetDefault("phonemize.words_mismatch", c.Phonemize.WordsMismatch)
	v.SetDefault("phonemize.with_stress", c.Phonemize.WithStress)
	v.SetDefault("phonemize.tie", c.Phonemize.Tie)
	v.SetDefault("separator.word", c.Separator.Word)
	v.SetDefault("separator.syllable", c.Separator.Syllable)
	v.SetDefault("separator.phone", c.Separator.Phone)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout_sec", c.Server.RequestTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.shutdown_timeout_sec", c.Server.ShutdownTimeout)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("log_level", "log-level")
	v.RegisterAlias("paths.g2p_dir", "paths-g2p-dir")
	v.RegisterAlias("phonemize.backend", "phonemize-backend")
	v.RegisterAlias("phonemize.language", "phonemize-language")
	v.RegisterAlias("phonemize.backend_path", "phonemize-backend-path")
	v.RegisterAlias("phonemize.preserve_punctuation", "phonemize-preserve-punctuation")
	v.RegisterAlias("phonemize.punctuation_marks", "phonemize-punctuation-marks")
	v.RegisterAlias("phonemize.strip", "phonemize-strip")
	v.RegisterAlias("phonemize.njobs", "phonemize-njobs")
	v.RegisterAlias("phonemize.language_switch", "phonemize-language-switch")
	v.RegisterAlias("phonemize.words_mismatch", "phonemize-words-mismatch")
	v.RegisterAlias("phonemize.with_stress", "phonemize-with-stress")
	v.RegisterAlias("phonemize.tie", "phonemize-tie")
	v.RegisterAlias("separator.word", "separator-word")
	v.RegisterAlias("separator.syllable", "separator-syllable")
	v.RegisterAlias("separator.phone", "separator-phone")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_text_bytes", "server-max-text-bytes")
	v.RegisterAlias("server.request_timeout_sec", "server-request-timeout-sec")
	v.RegisterAlias("server.workers", "server-workers")
	v.RegisterAlias("server.shutdown_timeout_sec", "server-shutdown-timeout-sec")
}
