// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey            = "config-file"
	NetworkNameKey           = "network-id"
	DataDirKey               = "data-dir"
	DBTypeKey                = "db-type"
	GenesisFileKey           = "genesis-file"
	GenesisKey               = "genesis"
	BlockIntervalKey         = "block-interval"
	InitialHeightKey         = "initial-height"
	VersionKey               = "version"
	HTTPHostKey              = "http-host"
	HTTPPortKey              = "http-port"
	HTTPAllowedOriginsKey    = "http-allowed-origins"
	HTTPMaxConnsKey          = "http-max-conns"
	HTTPRateLimitKey         = "http-rate-limit"
	HTTPRateBurstKey         = "http-rate-burst"
	HTTPReadHeaderTimeoutKey = "http-read-header-timeout"
	HTTPShutdownTimeoutKey   = "http-shutdown-timeout"
	HTTPTLSEnabledKey        = "http-tls-enabled"
	HTTPTLSKeyFileKey        = "http-tls-key-file"
	HTTPTLSCertFileKey       = "http-tls-cert-file"
	NATSURLKey               = "nats-url"
	NATSSubjectKey           = "nats-subject-prefix"
	LogsDirKey               = "log-dir"
	LogLevelKey              = "log-level"
	LogDisplayLevelKey       = "log-display-level"
	LogFormatKey             = "log-format"
	LogMaxSizeKey            = "log-rotater-max-size"
	LogMaxFilesKey           = "log-rotater-max-files"
	LogMaxAgeKey             = "log-rotater-max-age"
	LogCompressKey           = "log-rotater-compress-enabled"
	LogDisableDisplayKey     = "log-disable-display-plugin-logs"

	DAOMaxTitleLengthKey       = "dao-max-title-length"
	DAOMaxDescriptionLengthKey = "dao-max-description-length"
	DAOMinVotingPeriodKey      = "dao-min-voting-period"
	DAOMaxVotingPeriodKey      = "dao-max-voting-period"
	DAOProposalDepositKey      = "dao-proposal-deposit"
)
