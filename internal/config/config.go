package config

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/storages/s3"
)

const (
	AlgorithmSetting            = "RELAYSUM_ALGORITHM"
	ChunkSizeSetting            = "RELAYSUM_CHUNK_SIZE"
	PartSizeSetting             = "RELAYSUM_PART_SIZE"
	UploadConcurrencySetting    = "RELAYSUM_UPLOAD_CONCURRENCY"
	UploadRetriesSetting        = "RELAYSUM_UPLOAD_RETRIES"
	RateLimitSetting            = "RELAYSUM_RATE_LIMIT"
	LogLevelSetting             = "RELAYSUM_LOG_LEVEL"
	SerializerTypeSetting       = "RELAYSUM_SERIALIZER_TYPE"
	FilePrefixSetting           = "RELAYSUM_FILE_PREFIX"
	S3PrefixSetting             = "RELAYSUM_S3_PREFIX"
	CheckpointPrefixSetting     = "RELAYSUM_CHECKPOINT_PREFIX"
	StatsdAddressSetting        = "RELAYSUM_STATSD_ADDRESS"
	StatsdExtraTagsSetting      = "RELAYSUM_STATSD_EXTRA_TAGS"
	ProfileSamplingRatioSetting = "RELAYSUM_PROFILE_SAMPLING_RATIO"
	ProfileModeSetting          = "RELAYSUM_PROFILE_MODE"
	ProfilePathSetting          = "RELAYSUM_PROFILE_PATH"

	configFileName = ".relaysum"
)

var (
	CfgFile string

	defaultConfigValues = map[string]string{
		AlgorithmSetting:         "md5",
		ChunkSizeSetting:         "65536",
		PartSizeSetting:          "8388608",
		UploadConcurrencySetting: "4",
		UploadRetriesSetting:     "3",
		RateLimitSetting:         "0",
		LogLevelSetting:          tracelog.NormalLogLevel,
		SerializerTypeSetting:    "json_default",
	}

	AllowedSettings = map[string]bool{
		AlgorithmSetting:            true,
		ChunkSizeSetting:            true,
		PartSizeSetting:             true,
		UploadConcurrencySetting:    true,
		UploadRetriesSetting:        true,
		RateLimitSetting:            true,
		LogLevelSetting:             true,
		SerializerTypeSetting:       true,
		FilePrefixSetting:           true,
		S3PrefixSetting:             true,
		CheckpointPrefixSetting:     true,
		StatsdAddressSetting:        true,
		StatsdExtraTagsSetting:      true,
		ProfileSamplingRatioSetting: true,
		ProfileModeSetting:          true,
		ProfilePathSetting:          true,
	}

	secretSettings = map[string]bool{
		s3.AccessKeyIDSetting:     true,
		s3.SecretAccessKeySetting: true,
		s3.SessionTokenSetting:    true,
	}
)

func init() {
	for _, setting := range s3.SettingList {
		AllowedSettings[setting] = true
	}
}

// GetSetting extract setting by key if key is set, return empty string otherwise
func GetSetting(key string) (value string, ok bool) {
	if viper.IsSet(key) {
		return viper.GetString(key), true
	}
	return "", false
}

func ConfigureLogging() error {
	if viper.IsSet(LogLevelSetting) {
		return tracelog.UpdateLogLevel(viper.GetString(LogLevelSetting))
	}
	return nil
}

func Configure() {
	err := ConfigureLogging()
	if err != nil {
		tracelog.ErrorLogger.Println("Failed to configure logging.")
		tracelog.ErrorLogger.FatalError(err)
	}

	// Show all relevant ENV vars in DEVEL Logging Mode
	var buff bytes.Buffer
	buff.WriteString("--- COMPILED ENVIRONMENT VARS ---\n")
	var keys []string
	for k := range viper.AllSettings() {
		keys = append(keys, strings.ToUpper(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		val, ok := os.LookupEnv(k)
		if !ok {
			continue
		}
		if secretSettings[k] && val != "" {
			val = "--HIDDEN--"
		}
		fmt.Fprintf(&buff, "\t%s=%s\n", k, val)
	}
	tracelog.DebugLogger.Print(buff.String())
}

func AddConfigFlags(cmd *cobra.Command, hiddenCfgFlagAnnotation string) {
	cfgFlags := &pflag.FlagSet{}
	for k := range AllowedSettings {
		flagName := toFlagName(k)
		cfgFlags.String(flagName, "", "Can be set through this flag or "+k+" variable")
		_ = viper.BindPFlag(k, cfgFlags.Lookup(flagName))
	}
	cfgFlags.VisitAll(func(f *pflag.Flag) {
		if f.Annotations == nil {
			f.Annotations = map[string][]string{}
		}
		f.Annotations[hiddenCfgFlagAnnotation] = []string{"true"}
	})
	cmd.PersistentFlags().AddFlagSet(cfgFlags)
}

// InitConfig reads config file and ENV variables if set.
func InitConfig() {
	globalViper := viper.GetViper()
	globalViper.AutomaticEnv()
	SetDefaultValues(globalViper)
	ReadConfigFromFile(globalViper, CfgFile)
	CheckAllowedSettings(globalViper)
}

// ReadConfigFromFile read config to the viper instance
func ReadConfigFromFile(config *viper.Viper, configFile string) {
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		usr, err := user.Current()
		if err != nil {
			tracelog.WarningLogger.Printf("Failed to find home directory: %v\n", err)
			return
		}
		config.AddConfigPath(usr.HomeDir)
		config.SetConfigName(configFileName)
	}

	err := config.ReadInConfig()
	if err == nil {
		tracelog.DebugLogger.Println("Using config file:", config.ConfigFileUsed())
	} else if config.ConfigFileUsed() != "" {
		// Config file is found, but parsing failed
		tracelog.WarningLogger.Printf("Failed to parse config file %s. %s.\n", config.ConfigFileUsed(), err)
	}
}

// SetDefaultValues set default settings to the viper instance
func SetDefaultValues(config *viper.Viper) {
	for setting, value := range defaultConfigValues {
		config.SetDefault(setting, value)
	}
}

// CheckAllowedSettings warns about settings of a viper instance that are not known
func CheckAllowedSettings(config *viper.Viper) []string {
	var unknown []string
	for k := range config.AllSettings() {
		k = strings.ToUpper(k)
		if !AllowedSettings[k] {
			tracelog.WarningLogger.Println(k + " is unknown")
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func toFlagName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}
