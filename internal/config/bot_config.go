package config

type BotConfig struct {
	Token string `mapstructure:"token"`
}

// Token is checked by the bot itself, the CLI commands run without it.
func (config BotConfig) validate() error {
	return nil
}

func (config BotConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"bot.token": "TG_TOKEN",
	})
}
