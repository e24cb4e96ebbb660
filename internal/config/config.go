package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CREATE_GH_REPO_API_URL.
const EnvPrefix = "CREATE_GH_REPO"

const (
	DefaultAPIURL       = "https://api.github.com"
	DefaultLogLevel     = "warn"
	DefaultPollInterval = 50 * time.Millisecond
)

// Flag names shared by RegisterFlags and Load.
const (
	FlagConfig   = "config"
	FlagUser     = "user"
	FlagToken    = "token"
	FlagPassword = "password"
	FlagEditor   = "editor"
	FlagAPIURL   = "api-url"
	FlagLogLevel = "log-level"
)

// RegisterFlags adds the option flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "config file (default "+DefaultConfigPath()+")")
	fs.StringP(FlagUser, "u", "", "your GitHub account username")
	fs.StringP(FlagToken, "t", "", "a personal access token with the 'public_repo' (or 'repo') scope")
	fs.StringP(FlagPassword, "p", "", "the password to your GitHub account (requires --user)")
	fs.StringP(FlagEditor, "e", "", "the command to run to edit the repository manifest")
	fs.String(FlagAPIURL, "", "GitHub API base URL (default "+DefaultAPIURL+")")
	fs.String(FlagLogLevel, "", "log level: error, warn, info, debug, trace")
}

// Load resolves Options from flags, positional args ([mode] [directory]),
// environment, an optional YAML config file and an optional .env file in the
// working directory. Flags win over environment, which wins over the file.
func Load(flags *pflag.FlagSet, args []string) (*Options, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("scratch_dir", "")

	if err := readConfigFile(v, flagString(flags, FlagConfig)); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Names used by the original tool and by most shells.
	_ = v.BindEnv("editor", EnvPrefix+"_EDITOR", "VISUAL", "EDITOR")
	_ = v.BindEnv("username", EnvPrefix+"_USERNAME", "GITHUB_USERNAME")
	_ = v.BindEnv("token", EnvPrefix+"_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("password", EnvPrefix+"_PASSWORD", "GITHUB_PASSWORD")

	if flags != nil {
		for key, name := range map[string]string{
			"editor":    FlagEditor,
			"username":  FlagUser,
			"token":     FlagToken,
			"password":  FlagPassword,
			"api_url":   FlagAPIURL,
			"log_level": FlagLogLevel,
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	mode, dir, err := parseArgs(args)
	if err != nil {
		return nil, err
	}

	auth, err := resolveAuth(
		v.GetString("username"),
		v.GetString("token"),
		v.GetString("password"),
		flagChanged(flags, FlagPassword),
	)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Editor:       strings.TrimSpace(v.GetString("editor")),
		Auth:         auth,
		Mode:         mode,
		Directory:    dir,
		APIURL:       strings.TrimRight(v.GetString("api_url"), "/"),
		ScratchDir:   ExpandPath(v.GetString("scratch_dir")),
		LogLevel:     strings.ToLower(v.GetString("log_level")),
		PollInterval: v.GetDuration("poll_interval"),
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger.WithComponent("config").Debugf("mode=%s directory=%q editor=%q auth=%s api=%s", opts.Mode, opts.Directory, opts.Editor, opts.Auth, opts.APIURL)
	return opts, nil
}

func parseArgs(args []string) (Mode, string, error) {
	if len(args) > 2 {
		return "", "", fmt.Errorf("too many arguments: expected [mode] [directory], got %d", len(args))
	}
	var modeArg, dir string
	if len(args) > 0 {
		modeArg = args[0]
	}
	if len(args) > 1 {
		dir = ExpandPath(args[1])
	}
	mode, err := ParseMode(modeArg)
	if err != nil {
		return "", "", err
	}
	return mode, dir, nil
}

// resolveAuth picks the credential. A token is used unless a password was
// passed on the command line; a password always needs a username. With no
// token at all, a username and password from any source are used.
func resolveAuth(username, token, password string, passwordFlag bool) (Auth, error) {
	usePassword := passwordFlag || (token == "" && password != "")
	if usePassword {
		if username == "" {
			return Auth{}, &MissingParameterError{Name: "username", Hint: "--password requires --user or GITHUB_USERNAME"}
		}
		if password == "" {
			return Auth{}, &MissingParameterError{Name: "password"}
		}
		return Auth{Kind: AuthPassword, Username: username, Secret: password}, nil
	}
	if token == "" {
		return Auth{}, &MissingParameterError{Name: "authentication", Hint: "pass --token or set GITHUB_TOKEN"}
	}
	return Auth{Kind: AuthToken, Username: username, Secret: token}, nil
}

var optionsValidator = validator.New()

func (o *Options) validate() error {
	if o.Editor == "" {
		return &MissingParameterError{Name: "editor", Hint: "pass --editor or set EDITOR"}
	}
	if o.Auth.IsZero() {
		return &MissingParameterError{Name: "authentication"}
	}
	if err := optionsValidator.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", strings.ToLower(fe.Field()), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	return nil
}

func readConfigFile(v *viper.Viper, explicit string) error {
	v.SetConfigType("yaml")
	if explicit != "" {
		v.SetConfigFile(ExpandPath(explicit))
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(DefaultConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// loadDotEnv exports variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.WithComponent("config").Debugf("loaded environment from %s", path)
	return nil
}

// DefaultConfigDir is $XDG_CONFIG_HOME/create-gh-repo, or ~/.config/create-gh-repo.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "create-gh-repo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "create-gh-repo")
}

// DefaultConfigPath is the config file looked up when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func flagString(flags *pflag.FlagSet, name string) string {
	if flags == nil {
		return ""
	}
	s, _ := flags.GetString(name)
	return s
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Changed(name)
}
