// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/avalanchego/utils/constants"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/events"
)

const (
	appName = "caminodao"
	// EnvPrefix is prepended to the upper-cased, underscored flag names.
	EnvPrefix = appName
)

const (
	LevelDBType = "leveldb"
	MemDBType   = "memdb"
)

var (
	defaultDataDir = filepath.Join("$HOME", ".caminodao")
	defaultDBDir   = filepath.Join(defaultDataDir, "db")
	defaultLogDir  = filepath.Join(defaultDataDir, "logs")
	defaultTLSDir  = filepath.Join(defaultDataDir, "tls")
)

func addNodeFlags(fs *flag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies a config file (json or yaml)")
	fs.Bool(VersionKey, false, "If true, print version and quit")

	// Network
	fs.String(NetworkNameKey, constants.LocalName, "Network ID this node will connect to")

	// Storage
	fs.String(DataDirKey, defaultDBDir, "Path to the database directory")
	fs.String(DBTypeKey, LevelDBType, fmt.Sprintf("Database type to use. Should be one of {%s, %s}", LevelDBType, MemDBType))

	// Genesis
	fs.String(GenesisFileKey, "", "Specifies a genesis config file (json or yaml). Ignored if the config file has a genesis entry")

	// Block clock
	fs.Duration(BlockIntervalKey, 2*time.Second, "Interval between two block heights, 0 disables advancing the height")
	fs.Uint64(InitialHeightKey, 1, "Height the block clock starts from on a fresh database")

	// HTTP APIs
	fs.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(HTTPPortKey, 9750, "Port of the HTTP server")
	fs.String(HTTPAllowedOriginsKey, "*", "Origins to allow on the HTTP port. Defaults to * which allows all origins. Example: https://*.camino.network https://*.camino.foundation")
	fs.Int(HTTPMaxConnsKey, 0, "Maximum number of concurrent HTTP connections, 0 means unlimited")
	fs.Float64(HTTPRateLimitKey, 0, "Maximum sustained HTTP requests per second, 0 means unlimited")
	fs.Int(HTTPRateBurstKey, 100, "Maximum burst of HTTP requests")
	fs.Duration(HTTPReadHeaderTimeoutKey, 30*time.Second, "Maximum duration to read request headers")
	fs.Duration(HTTPShutdownTimeoutKey, 10*time.Second, "Maximum duration to wait for in-flight HTTP requests on shutdown")
	fs.Bool(HTTPTLSEnabledKey, false, "If true, serve the HTTP APIs over TLS")
	fs.String(HTTPTLSKeyFileKey, filepath.Join(defaultTLSDir, "server.key"), "TLS private key file, a self-signed pair is generated if it doesn't exist")
	fs.String(HTTPTLSCertFileKey, filepath.Join(defaultTLSDir, "server.crt"), "TLS certificate file")

	// Event streaming
	fs.String(NATSURLKey, "", "URL of the NATS server events are published to. Empty disables publishing")
	fs.String(NATSSubjectKey, events.DefaultSubjectPrefix, "Subject prefix of published events")

	// Logging
	fs.String(LogsDirKey, defaultLogDir, "Logging directory")
	fs.String(LogLevelKey, "info", "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "", "The log display level. If left blank, will inherit the value of log-level. Otherwise, should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogFormatKey, "auto", "The structure of log format. Defaults to 'auto' which formats terminal-like logs, when the output is a terminal. Otherwise, should be one of {auto, plain, colors, json}")
	fs.Uint(LogMaxSizeKey, 8, "The maximum file size in megabytes of the log file before it gets rotated")
	fs.Uint(LogMaxFilesKey, 7, "The maximum number of old log files to retain. 0 means retain all old log files")
	fs.Uint(LogMaxAgeKey, 0, "The maximum number of days to retain old log files based on the timestamp encoded in their filename. 0 means retain all old log files")
	fs.Bool(LogCompressKey, false, "Enables the compression of rotated log files through gzip")
	fs.Bool(LogDisableDisplayKey, false, "Disables displaying logs in stdout")

	// Governance
	fs.Uint(DAOMaxTitleLengthKey, uint(dao.DefaultConfig.MaxTitleLength), "Maximum length of a proposal title in bytes")
	fs.Uint(DAOMaxDescriptionLengthKey, uint(dao.DefaultConfig.MaxDescriptionLength), "Maximum length of a proposal description in bytes")
	fs.Uint64(DAOMinVotingPeriodKey, dao.DefaultConfig.MinVotingPeriod, "Minimum number of blocks a proposal is open for voting")
	fs.Uint64(DAOMaxVotingPeriodKey, dao.DefaultConfig.MaxVotingPeriod, "Maximum number of blocks a proposal is open for voting")
	fs.Uint64(DAOProposalDepositKey, dao.DefaultConfig.ProposalDeposit, "Amount reserved from the proposer while a proposal is pending")
}

// BuildFlagSet returns a complete set of flags for the node
func BuildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	addNodeFlags(fs)
	return fs
}

// BuildViper returns the viper environment from parsing config file from
// default search paths and any parsed command line flags
func BuildViper(fs *flag.FlagSet, args []string) (*viper.Viper, error) {
	pfs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	pfs.AddGoFlagSet(fs)
	if err := pfs.Parse(args); err != nil {
		return nil, err
	}
	return BindViper(pfs)
}

// BindViper binds already parsed flags, the environment and the optional
// config file into one viper instance.
func BindViper(pfs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindPFlags(pfs); err != nil {
		return nil, err
	}

	if configFile := v.GetString(ConfigFileKey); configFile != "" {
		v.SetConfigFile(os.ExpandEnv(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %q: %w", configFile, err)
		}
	}
	return v, nil
}
