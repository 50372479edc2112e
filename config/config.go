// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/genesis"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	errInvalidDBType       = errors.New("invalid database type")
	errInvalidPort         = errors.New("invalid http port")
	errNegativeDuration    = errors.New("duration must be non-negative")
	errInvalidRateLimit    = errors.New("http rate limit must be non-negative")
	errInvalidRateBurst    = errors.New("http rate burst must be positive when rate limiting is enabled")
	errInvalidMaxConns     = errors.New("http max conns must be non-negative")
	errUint32Overflow      = errors.New("value doesn't fit into uint32")
	errZeroInitialHeight   = errors.New("initial height must be greater than zero")
	errGenesisFileConflict = errors.New("genesis and genesis file are both set")
)

type HTTPConfig struct {
	Host              string        `json:"host"`
	Port              uint16        `json:"port"`
	AllowedOrigins    []string      `json:"allowedOrigins"`
	MaxConns          int           `json:"maxConns"`
	RateLimit         float64       `json:"rateLimit"`
	RateBurst         int           `json:"rateBurst"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout"`

	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSKeyFile  string `json:"tlsKeyFile"`
	TLSCertFile string `json:"tlsCertFile"`
}

// Addr returns the host:port the server listens on.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL           string `json:"url"`
	SubjectPrefix string `json:"subjectPrefix"`
}

func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// Config contains all of the configurations of a governance node.
type Config struct {
	NetworkID uint32 `json:"networkID"`

	DBPath string `json:"dbPath"`
	DBType string `json:"dbType"`

	// Interval between two block heights, 0 disables the ticker
	BlockInterval time.Duration `json:"blockInterval"`
	InitialHeight uint64        `json:"initialHeight"`

	DAO     dao.Config     `json:"daoConfig"`
	HTTP    HTTPConfig     `json:"httpConfig"`
	NATS    NATSConfig     `json:"natsConfig"`
	Logging logging.Config `json:"loggingConfig"`

	Genesis *genesis.Config `json:"-"`
}

// GetNodeConfig builds the node config from flags, environment and config
// file values bound to [v].
func GetNodeConfig(v *viper.Viper) (Config, error) {
	var (
		config = Config{}
		err    error
	)

	config.NetworkID, err = constants.NetworkID(v.GetString(NetworkNameKey))
	if err != nil {
		return Config{}, err
	}

	config.DBType = v.GetString(DBTypeKey)
	if config.DBType != LevelDBType && config.DBType != MemDBType {
		return Config{}, fmt.Errorf("%w: %q", errInvalidDBType, config.DBType)
	}
	config.DBPath = filepath.Join(
		getExpandedString(v, DataDirKey),
		constants.NetworkName(config.NetworkID),
	)

	config.BlockInterval = v.GetDuration(BlockIntervalKey)
	if config.BlockInterval < 0 {
		return Config{}, fmt.Errorf("%w: %s", errNegativeDuration, BlockIntervalKey)
	}
	config.InitialHeight = v.GetUint64(InitialHeightKey)
	if config.InitialHeight == 0 {
		return Config{}, errZeroInitialHeight
	}

	config.DAO, err = getDAOConfig(v)
	if err != nil {
		return Config{}, err
	}

	config.HTTP, err = getHTTPConfig(v)
	if err != nil {
		return Config{}, err
	}

	config.NATS = NATSConfig{
		URL:           v.GetString(NATSURLKey),
		SubjectPrefix: v.GetString(NATSSubjectKey),
	}

	config.Logging, err = getLoggingConfig(v)
	if err != nil {
		return Config{}, err
	}

	config.Genesis, err = getGenesisConfig(v, config.NetworkID)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func getDAOConfig(v *viper.Viper) (dao.Config, error) {
	maxTitleLength, err := getUint32(v, DAOMaxTitleLengthKey)
	if err != nil {
		return dao.Config{}, err
	}
	maxDescriptionLength, err := getUint32(v, DAOMaxDescriptionLengthKey)
	if err != nil {
		return dao.Config{}, err
	}
	config := dao.Config{
		MaxTitleLength:       maxTitleLength,
		MaxDescriptionLength: maxDescriptionLength,
		MinVotingPeriod:      v.GetUint64(DAOMinVotingPeriodKey),
		MaxVotingPeriod:      v.GetUint64(DAOMaxVotingPeriodKey),
		ProposalDeposit:      v.GetUint64(DAOProposalDepositKey),
	}
	if err := config.Verify(); err != nil {
		return dao.Config{}, fmt.Errorf("invalid dao config: %w", err)
	}
	return config, nil
}

func getHTTPConfig(v *viper.Viper) (HTTPConfig, error) {
	port := v.GetUint(HTTPPortKey)
	if port > math.MaxUint16 {
		return HTTPConfig{}, fmt.Errorf("%w: %d", errInvalidPort, port)
	}

	config := HTTPConfig{
		Host:              v.GetString(HTTPHostKey),
		Port:              uint16(port),
		AllowedOrigins:    strings.Fields(v.GetString(HTTPAllowedOriginsKey)),
		MaxConns:          v.GetInt(HTTPMaxConnsKey),
		RateLimit:         v.GetFloat64(HTTPRateLimitKey),
		RateBurst:         v.GetInt(HTTPRateBurstKey),
		ReadHeaderTimeout: v.GetDuration(HTTPReadHeaderTimeoutKey),
		ShutdownTimeout:   v.GetDuration(HTTPShutdownTimeoutKey),
		TLSEnabled:        v.GetBool(HTTPTLSEnabledKey),
		TLSKeyFile:        getExpandedString(v, HTTPTLSKeyFileKey),
		TLSCertFile:       getExpandedString(v, HTTPTLSCertFileKey),
	}
	switch {
	case config.MaxConns < 0:
		return HTTPConfig{}, errInvalidMaxConns
	case config.RateLimit < 0:
		return HTTPConfig{}, errInvalidRateLimit
	case config.RateLimit > 0 && config.RateBurst <= 0:
		return HTTPConfig{}, errInvalidRateBurst
	case config.ReadHeaderTimeout < 0:
		return HTTPConfig{}, fmt.Errorf("%w: %s", errNegativeDuration, HTTPReadHeaderTimeoutKey)
	case config.ShutdownTimeout < 0:
		return HTTPConfig{}, fmt.Errorf("%w: %s", errNegativeDuration, HTTPShutdownTimeoutKey)
	}
	return config, nil
}

func getLoggingConfig(v *viper.Viper) (logging.Config, error) {
	loggingConfig := logging.Config{}
	loggingConfig.Directory = getExpandedString(v, LogsDirKey)

	var err error
	loggingConfig.LogLevel, err = logging.ToLevel(v.GetString(LogLevelKey))
	if err != nil {
		return loggingConfig, err
	}

	logDisplayLevel := v.GetString(LogLevelKey)
	if v.IsSet(LogDisplayLevelKey) && v.GetString(LogDisplayLevelKey) != "" {
		logDisplayLevel = v.GetString(LogDisplayLevelKey)
	}
	loggingConfig.DisplayLevel, err = logging.ToLevel(logDisplayLevel)
	if err != nil {
		return loggingConfig, err
	}

	loggingConfig.LogFormat, err = logging.ToFormat(v.GetString(LogFormatKey), os.Stdout.Fd())
	if err != nil {
		return loggingConfig, err
	}

	loggingConfig.MaxSize = int(v.GetUint(LogMaxSizeKey))
	loggingConfig.MaxFiles = int(v.GetUint(LogMaxFilesKey))
	loggingConfig.MaxAge = int(v.GetUint(LogMaxAgeKey))
	loggingConfig.Compress = v.GetBool(LogCompressKey)
	loggingConfig.DisableWriterDisplaying = v.GetBool(LogDisableDisplayKey)
	return loggingConfig, nil
}

// getGenesisConfig prefers an inline genesis from the config file, then a
// genesis file and finally the built-in genesis of the network.
func getGenesisConfig(v *viper.Viper, networkID uint32) (*genesis.Config, error) {
	genesisFile := getExpandedString(v, GenesisFileKey)
	if v.IsSet(GenesisKey) {
		if genesisFile != "" {
			return nil, errGenesisFileConflict
		}
		uc := genesis.UnparsedConfig{}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &uc,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(v.Get(GenesisKey)); err != nil {
			return nil, fmt.Errorf("couldn't decode %s: %w", GenesisKey, err)
		}
		if uc.NetworkID == 0 {
			uc.NetworkID = networkID
		}
		return genesis.FromUnparsed(networkID, uc)
	}
	if genesisFile != "" {
		return genesis.FromFile(networkID, genesisFile)
	}
	return genesis.GetConfig(networkID), nil
}

func getUint32(v *viper.Viper, key string) (uint32, error) {
	value, err := cast.ToUint64E(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("couldn't parse %s: %w", key, err)
	}
	if value > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s=%d", errUint32Overflow, key, value)
	}
	return uint32(value), nil
}

func getExpandedString(v *viper.Viper, key string) string {
	return os.ExpandEnv(v.GetString(key))
}
