package commands

import (
	"github.com/loykin/curlproxy/cmd/curlproxy/config"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/spf13/viper"
)

// loadConfig resolves the effective configuration and installs the logger it describes.
func loadConfig() (*config.ConfigDoc, *common.Logger, error) {
	if err := config.LoadDotEnv(config.DotEnvPath); err != nil {
		return nil, nil, err
	}
	v := viper.GetViper()
	required := v.GetString("config") != config.DefaultPath
	doc, err := config.FromViper(v, required)
	if err != nil {
		return nil, nil, err
	}
	logger, err := doc.SetupLogging()
	if err != nil {
		return nil, nil, err
	}
	return doc, logger, nil
}
