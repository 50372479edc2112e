// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package admin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/api"
)

func newTestAdmin(t *testing.T) *Admin {
	t.Helper()

	factory := logging.NewFactory(logging.Config{
		RotatingWriterConfig: logging.RotatingWriterConfig{
			Directory: t.TempDir(),
		},
		DisableWriterDisplaying: true,
		LogLevel:                logging.Info,
		DisplayLevel:            logging.Info,
	})
	t.Cleanup(factory.Close)

	for _, name := range []string{"main", "dao"} {
		_, err := factory.Make(name)
		require.NoError(t, err)
	}
	return &Admin{Config: Config{
		Log:        logging.NoLog{},
		LogFactory: factory,
	}}
}

func TestSetLoggerLevel(t *testing.T) {
	debug := logging.Debug
	warn := logging.Warn

	tests := map[string]struct {
		args           SetLoggerLevelArgs
		expectedLevels map[string]LogAndDisplayLevels
		expectedErr    error
	}{
		"OK: all loggers": {
			args: SetLoggerLevelArgs{LogLevel: &debug},
			expectedLevels: map[string]LogAndDisplayLevels{
				"main": {LogLevel: logging.Debug, DisplayLevel: logging.Info},
				"dao":  {LogLevel: logging.Debug, DisplayLevel: logging.Info},
			},
		},
		"OK: single logger": {
			args: SetLoggerLevelArgs{LoggerName: "dao", LogLevel: &debug, DisplayLevel: &warn},
			expectedLevels: map[string]LogAndDisplayLevels{
				"main": {LogLevel: logging.Info, DisplayLevel: logging.Info},
				"dao":  {LogLevel: logging.Debug, DisplayLevel: logging.Warn},
			},
		},
		"Fail: no level": {
			args:        SetLoggerLevelArgs{LoggerName: "dao"},
			expectedErr: errNoLogLevel,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			admin := newTestAdmin(t)

			err := admin.SetLoggerLevel(nil, &tt.args, &api.EmptyReply{})
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}

			reply := GetLoggerLevelReply{}
			require.NoError(admin.GetLoggerLevel(nil, &GetLoggerLevelArgs{}, &reply))
			require.Equal(tt.expectedLevels, reply.LoggerLevels)
		})
	}
}

func TestGetLoggerLevelUnknownLogger(t *testing.T) {
	admin := newTestAdmin(t)
	err := admin.GetLoggerLevel(nil, &GetLoggerLevelArgs{LoggerName: "unknown"}, &GetLoggerLevelReply{})
	require.Error(t, err)
}

func TestNewService(t *testing.T) {
	handler, err := NewService(Config{Log: logging.NoLog{}})
	require.NoError(t, err)
	require.NotNil(t, handler)
}
